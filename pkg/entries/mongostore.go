package entries

import (
	"context"
	"errors"

	"github.com/travigo/vvs/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore() *MongoStore {
	return &MongoStore{
		collection: database.GetCollection(database.ConfigEntriesCollection),
	}
}

func (s *MongoStore) Create(ctx context.Context, title string, data Data) (*Entry, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	entry := newEntry(title, data)

	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *MongoStore) Get(ctx context.Context, entryID string) (*Entry, error) {
	var entry *Entry

	err := s.collection.FindOne(ctx, bson.M{"entryid": entryID}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Entry, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}}))
	if err != nil {
		return nil, err
	}

	entries := []*Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *MongoStore) Delete(ctx context.Context, entryID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"entryid": entryID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
