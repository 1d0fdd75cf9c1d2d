package setup

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/coordinator"
	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/events"
	"github.com/travigo/vvs/pkg/redis_client"
	"github.com/travigo/vvs/pkg/snapshotcache"
	"github.com/travigo/vvs/pkg/stations"
	"github.com/travigo/vvs/pkg/util"
)

func IntervalFromEnvironment() (time.Duration, error) {
	return coordinator.ParseInterval(util.GetEnvironmentVariables()["VVS_SCAN_INTERVAL"])
}

// ConnectRedis attaches the snapshot cache and state change publisher when
// Redis is configured
func (m *Manager) ConnectRedis() error {
	if !redis_client.Configured() {
		log.Info().Msg("VVS_REDIS_ADDRESS not set, snapshot cache and state change events disabled")
		return nil
	}

	if err := redis_client.Connect(); err != nil {
		return err
	}

	queue, err := redis_client.QueueConnection.OpenQueue(events.StateChangedQueue)
	if err != nil {
		return err
	}

	m.Cache = snapshotcache.New(redis_client.Client)
	m.Publisher = events.NewPublisher(queue)

	return nil
}

// NewManagerFromEnvironment builds a manager using the environment for the
// store, timezone, scan interval and Redis backends
func NewManagerFromEnvironment(table *stations.Table) (*Manager, error) {
	location, err := departures.LocationFromEnvironment()
	if err != nil {
		return nil, err
	}

	interval, err := IntervalFromEnvironment()
	if err != nil {
		return nil, err
	}

	store, err := entries.StoreFromEnvironment()
	if err != nil {
		return nil, err
	}

	manager := NewManager(store, efa.NewClient(location), table, location, interval)
	if err := manager.ConnectRedis(); err != nil {
		return nil, err
	}

	log.Info().Str("timezone", location.String()).Dur("interval", interval).Msg("Config entry manager ready")

	return manager, nil
}
