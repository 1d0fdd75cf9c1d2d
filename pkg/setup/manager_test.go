package setup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/vvs/pkg/efa"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/events"
	"github.com/travigo/vvs/pkg/sensor"
	"github.com/travigo/vvs/pkg/snapshotcache"
	"github.com/travigo/vvs/pkg/stations"
)

const (
	hauptbahnhof = "de:08111:6118"
	vaihingen    = "de:08111:6001"
)

type fakeFetcher struct {
	mutex sync.Mutex
	trips []efa.Trip
	err   error
	calls int

	// When release is set every call blocks until it is closed
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) GetTrips(ctx context.Context, tripRequest efa.TripRequest) ([]efa.Trip, error) {
	if f.release != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
		<-f.release
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.calls++
	return f.trips, f.err
}

func (f *fakeFetcher) set(trips []efa.Trip, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.trips = trips
	f.err = err
}

type fakeQueue struct {
	mutex    sync.Mutex
	payloads [][]byte
}

func (q *fakeQueue) PublishBytes(payload ...[]byte) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.payloads = append(q.payloads, payload...)
	return nil
}

func (q *fakeQueue) events(t *testing.T) []events.StateChangedEvent {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	var decoded []events.StateChangedEvent
	for _, payload := range q.payloads {
		var event events.StateChangedEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		decoded = append(decoded, event)
	}

	return decoded
}

func oneTrip() []efa.Trip {
	departure := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	arrival := departure.Add(27 * time.Minute)

	return []efa.Trip{{Connections: []efa.Connection{{
		Origin:         &efa.Stop{Name: "Hauptbf", DepartureTimePlanned: &departure},
		Destination:    &efa.Stop{Name: "Vaihingen", ArrivalTimePlanned: &arrival},
		Transportation: &efa.Transportation{Number: "S1", Product: efa.Product{Class: 1}},
	}}}}
}

func newTestManager(t *testing.T, fetcher *fakeFetcher) (*Manager, *fakeQueue, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	queue := &fakeQueue{}

	manager := NewManager(entries.NewMemoryStore(), fetcher, stations.Default(), time.UTC, time.Hour)
	manager.Cache = snapshotcache.New(client)
	manager.Publisher = events.NewPublisher(queue)
	manager.RetryBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(10 * time.Millisecond)
	}
	t.Cleanup(manager.Stop)

	return manager, queue, server
}

func TestCreateEntryLoadsRuntime(t *testing.T) {
	ctx := context.Background()
	manager, queue, server := newTestManager(t, &fakeFetcher{trips: oneTrip()})

	entry, err := manager.CreateEntry(ctx, "Hauptbahnhof (tief) - Vaihingen", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)

	runtime, err := manager.Runtime(entry.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "09:00", runtime.Sensor.StateValue())
	assert.Equal(t, "sensor.vvs_hauptbahnhof_tief_to_vaihingen", runtime.Sensor.EntityID())

	publishedEvents := queue.events(t)
	require.Len(t, publishedEvents, 1)
	assert.Equal(t, "", publishedEvents[0].OldState)
	assert.Equal(t, "09:00", publishedEvents[0].NewState)
	assert.Equal(t, entry.EntryID, publishedEvents[0].EntryID)

	assert.True(t, server.Exists("vvs:snapshot:"+entry.EntryID))
}

func TestStateChangesArePublishedOnce(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{trips: oneTrip()}
	manager, queue, _ := newTestManager(t, fetcher)

	entry, err := manager.CreateEntry(ctx, "route", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)

	runtime, err := manager.Runtime(entry.EntryID)
	require.NoError(t, err)

	// Same data again does not change the state
	require.NoError(t, runtime.Coordinator.Refresh(ctx))
	assert.Len(t, queue.events(t), 1)

	fetcher.set(nil, errors.New("timeout"))
	require.Error(t, runtime.Coordinator.Refresh(ctx))

	publishedEvents := queue.events(t)
	require.Len(t, publishedEvents, 2)
	assert.Equal(t, "09:00", publishedEvents[1].OldState)
	assert.Equal(t, sensor.StateUnavailable, publishedEvents[1].NewState)
}

func TestNotReadyEntryIsRetried(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	manager, _, _ := newTestManager(t, fetcher)

	entry, err := manager.CreateEntry(ctx, "route", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)

	_, err = manager.Runtime(entry.EntryID)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.True(t, manager.Pending(entry.EntryID))

	fetcher.set(oneTrip(), nil)

	require.Eventually(t, func() bool {
		_, err := manager.Runtime(entry.EntryID)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return !manager.Pending(entry.EntryID)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemoveEntry(t *testing.T) {
	ctx := context.Background()
	manager, _, server := newTestManager(t, &fakeFetcher{trips: oneTrip()})

	entry, err := manager.CreateEntry(ctx, "route", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)

	require.NoError(t, manager.RemoveEntry(ctx, entry.EntryID))

	_, err = manager.Runtime(entry.EntryID)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = manager.Store.Get(ctx, entry.EntryID)
	assert.ErrorIs(t, err, entries.ErrNotFound)

	assert.False(t, server.Exists("vvs:snapshot:"+entry.EntryID))

	assert.ErrorIs(t, manager.RemoveEntry(ctx, entry.EntryID), entries.ErrNotFound)
}

func TestRemovePendingEntryStopsRetry(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	manager, _, _ := newTestManager(t, fetcher)

	entry, err := manager.CreateEntry(ctx, "route", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)
	require.True(t, manager.Pending(entry.EntryID))

	require.NoError(t, manager.RemoveEntry(ctx, entry.EntryID))
	assert.False(t, manager.Pending(entry.EntryID))

	fetcher.set(oneTrip(), nil)
	time.Sleep(50 * time.Millisecond)

	_, err = manager.Runtime(entry.EntryID)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestRemoveEntryDuringFirstRefresh(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "refresh succeeds", err: nil},
		{name: "refresh fails", err: errors.New("connection refused")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			fetcher := &fakeFetcher{
				trips:   oneTrip(),
				err:     test.err,
				started: make(chan struct{}, 1),
				release: make(chan struct{}),
			}
			manager, _, _ := newTestManager(t, fetcher)

			created := make(chan error, 1)
			go func() {
				_, err := manager.CreateEntry(ctx, "route", entries.NewData(hauptbahnhof, vaihingen))
				created <- err
			}()

			select {
			case <-fetcher.started:
			case <-time.After(2 * time.Second):
				t.Fatal("first refresh never reached the fetcher")
			}

			storedEntries, err := manager.Store.List(ctx)
			require.NoError(t, err)
			require.Len(t, storedEntries, 1)
			entryID := storedEntries[0].EntryID

			require.NoError(t, manager.RemoveEntry(ctx, entryID))
			close(fetcher.release)

			select {
			case err := <-created:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("CreateEntry did not return")
			}

			_, err = manager.Runtime(entryID)
			assert.ErrorIs(t, err, ErrNotLoaded)
			assert.False(t, manager.Pending(entryID))
			assert.Empty(t, manager.Runtimes())

			fetcher.mutex.Lock()
			calls := fetcher.calls
			fetcher.mutex.Unlock()

			time.Sleep(50 * time.Millisecond)

			_, err = manager.Runtime(entryID)
			assert.ErrorIs(t, err, ErrNotLoaded)
			assert.False(t, manager.Pending(entryID))

			fetcher.mutex.Lock()
			assert.Equal(t, calls, fetcher.calls)
			fetcher.mutex.Unlock()
		})
	}
}

func TestStartLoadsStoredEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, _, _ := newTestManager(t, &fakeFetcher{trips: oneTrip()})

	first, err := manager.Store.Create(ctx, "first", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)
	second, err := manager.Store.Create(ctx, "second", entries.NewData(vaihingen, hauptbahnhof))
	require.NoError(t, err)

	require.NoError(t, manager.Start(ctx))

	runtimes := manager.Runtimes()
	require.Len(t, runtimes, 2)

	loaded := []string{runtimes[0].Entry.EntryID, runtimes[1].Entry.EntryID}
	assert.ElementsMatch(t, []string{first.EntryID, second.EntryID}, loaded)

	manager.Stop()
	assert.Empty(t, manager.Runtimes())
}

func TestIntervalFromEnvironment(t *testing.T) {
	t.Setenv("VVS_SCAN_INTERVAL", "PT30S")

	interval, err := IntervalFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, interval)
}

func TestSyncFollowsStore(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t, &fakeFetcher{trips: oneTrip()})

	loaded, err := manager.CreateEntry(ctx, "loaded", entries.NewData(hauptbahnhof, vaihingen))
	require.NoError(t, err)

	// Written by another process
	added, err := manager.Store.Create(ctx, "added", entries.NewData(vaihingen, hauptbahnhof))
	require.NoError(t, err)
	require.NoError(t, manager.Store.Delete(ctx, loaded.EntryID))

	require.NoError(t, manager.Sync(ctx))

	_, err = manager.Runtime(loaded.EntryID)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = manager.Runtime(added.EntryID)
	assert.NoError(t, err)

	require.NoError(t, manager.Sync(ctx))
	assert.Len(t, manager.Runtimes(), 1)
}
