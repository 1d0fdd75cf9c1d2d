package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ConfigEntriesCollection = "config_entries"

func createIndexes() {
	createConfigEntriesIndexes()
}

func createConfigEntriesIndexes() {
	configEntriesCollection := GetCollection(ConfigEntriesCollection)
	configEntriesIndex := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entryid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "data.start", Value: 1}, {Key: "data.destination", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := configEntriesCollection.Indexes().CreateMany(context.Background(), configEntriesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
