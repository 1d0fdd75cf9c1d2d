package redis_client

import (
	"context"
	"strconv"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/util"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

// Configured reports whether a Redis address has been set in the environment
func Configured() bool {
	return util.GetEnvironmentVariables()["VVS_REDIS_ADDRESS"] != ""
}

func Connect() error {
	address := defaultConnectionAddress
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["VVS_REDIS_ADDRESS"] != "" {
		address = env["VVS_REDIS_ADDRESS"]
	}

	if env["VVS_REDIS_PASSWORD"] != "" {
		password = env["VVS_REDIS_PASSWORD"]
	}

	if env["VVS_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["VVS_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return err
		}
	}

	return ConnectWithOptions(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})
}

func ConnectWithOptions(options *redis.Options) error {
	Client = redis.NewClient(options)

	statusCmd := Client.Ping(context.Background())
	err := statusCmd.Err()
	if err != nil {
		return err
	}

	errChan := make(chan error, 10)
	go logQueueErrors(errChan)

	QueueConnection, err = rmq.OpenConnectionWithRedisClient("vvs", Client, errChan)
	if err != nil {
		return err
	}

	log.Info().Str("address", options.Addr).Msg("Connected to Redis")

	return nil
}

func logQueueErrors(errChan <-chan error) {
	for err := range errChan {
		log.Error().Err(err).Msg("Redis queue error")
	}
}
