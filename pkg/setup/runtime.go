package setup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/events"
	"github.com/travigo/vvs/pkg/sensor"
	"github.com/travigo/vvs/pkg/snapshotcache"
)

// Runtime is everything a loaded entry owns
type Runtime struct {
	Entry       *entries.Entry
	Coordinator *departures.Coordinator
	Sensor      *sensor.Sensor

	cancel         context.CancelFunc
	done           chan struct{}
	removeListener func()

	stateMutex sync.Mutex
	lastState  string
}

func (r *Runtime) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		r.Coordinator.Run(runCtx)
	}()
}

func (r *Runtime) stop() {
	if r.removeListener != nil {
		r.removeListener()
	}

	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// onUpdate runs after every coordinator cycle
func (r *Runtime) onUpdate(cache *snapshotcache.Cache, publisher *events.Publisher) {
	newState := r.Sensor.StateValue()

	r.stateMutex.Lock()
	oldState := r.lastState
	r.lastState = newState
	r.stateMutex.Unlock()

	if publisher != nil && oldState != newState {
		publisher.PublishStateChanged(r.Entry.EntryID, r.Sensor.EntityID(), oldState, newState)
	}

	if cache != nil && r.Coordinator.LastUpdateSuccess() {
		snapshot, _ := r.Coordinator.Data()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := cache.Store(ctx, snapshotcache.CachedSnapshot{
			EntryID:   r.Entry.EntryID,
			State:     newState,
			Snapshot:  snapshot,
			UpdatedAt: r.Coordinator.LastUpdate(),
		})
		if err != nil {
			log.Error().Err(err).Str("entry", r.Entry.EntryID).Msg("Failed to cache snapshot")
		}
	}
}
