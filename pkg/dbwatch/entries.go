package dbwatch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrStreamClosed = errors.New("change stream closed")

// EntriesWatch follows the config entries collection so entries written by
// other processes are loaded without a restart
type EntriesWatch struct {
	Collection *mongo.Collection
	OnChange   func(ctx context.Context) error
}

type entriesChange struct {
	OperationType string `bson:"operationType"`
}

func NewEntriesWatch(onChange func(ctx context.Context) error) *EntriesWatch {
	return &EntriesWatch{
		Collection: database.GetCollection(database.ConfigEntriesCollection),
		OnChange:   onChange,
	}
}

func entriesPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{
			{
				Key: "$match", Value: bson.D{
					{
						Key: "operationType", Value: bson.D{
							{Key: "$in", Value: bson.A{"insert", "delete", "replace"}},
						},
					},
				},
			},
		},
	}
}

// Run watches until ctx is cancelled, reopening the stream when it falls over
func (w *EntriesWatch) Run(ctx context.Context) {
	log.Info().Str("collection", database.ConfigEntriesCollection).Msg("Starting dbwatch")

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = 0

	backoff.RetryNotify(func() error {
		return w.watch(ctx)
	}, backoff.WithContext(retryBackoff, ctx), func(err error, wait time.Duration) {
		log.Error().Err(err).Dur("wait", wait).Msg("Config entries watch fell over")
	})
}

func (w *EntriesWatch) watch(ctx context.Context) error {
	stream, err := w.Collection.Watch(ctx, entriesPipeline())
	if err != nil {
		return err
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var change entriesChange
		if err := stream.Decode(&change); err != nil {
			log.Error().Err(err).Msg("Failed to decode change event")
			continue
		}

		log.Debug().Str("operation", change.OperationType).Msg("Config entries changed")

		if err := w.OnChange(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to sync config entries")
		}
	}

	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}
	if stream.Err() != nil {
		return stream.Err()
	}

	return ErrStreamClosed
}
