package setup

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/vvs/pkg/coordinator"
	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/entries"
	"github.com/travigo/vvs/pkg/events"
	"github.com/travigo/vvs/pkg/sensor"
	"github.com/travigo/vvs/pkg/snapshotcache"
	"github.com/travigo/vvs/pkg/stations"
	"github.com/travigo/vvs/pkg/util"
)

var ErrNotLoaded = errors.New("config entry is not loaded")

// Manager owns the runtime of every config entry. Entries that fail their
// first refresh are retried in the background until they load or are removed.
type Manager struct {
	Store    entries.Store
	Fetcher  departures.TripFetcher
	Table    *stations.Table
	Location *time.Location
	Interval time.Duration

	Cache     *snapshotcache.Cache
	Publisher *events.Publisher

	RetryBackOff func() backoff.BackOff

	mutex    sync.RWMutex
	ctx      context.Context
	runtimes map[string]*Runtime
	setups   map[string]*pendingSetup
}

// pendingSetup is an entry between being picked up and being loaded.
// Cancelling it stops the first refresh and any retry.
type pendingSetup struct {
	cancel   context.CancelFunc
	retrying bool
}

func NewManager(store entries.Store, fetcher departures.TripFetcher, table *stations.Table, location *time.Location, interval time.Duration) *Manager {
	return &Manager{
		Store:        store,
		Fetcher:      fetcher,
		Table:        table,
		Location:     location,
		Interval:     interval,
		RetryBackOff: defaultRetryBackOff,
		ctx:          context.Background(),
		runtimes:     map[string]*Runtime{},
		setups:       map[string]*pendingSetup{},
	}
}

func defaultRetryBackOff() backoff.BackOff {
	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = 5 * time.Second
	retryBackoff.MaxInterval = 10 * time.Minute
	retryBackoff.MaxElapsedTime = 0

	return retryBackoff
}

// Start loads every stored entry. Coordinators keep running until ctx is
// cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.mutex.Lock()
	m.ctx = ctx
	m.mutex.Unlock()

	return m.LoadAll(ctx)
}

// LoadAll sets up every stored entry concurrently
func (m *Manager) LoadAll(ctx context.Context) error {
	storedEntries, err := m.Store.List(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("entries", len(storedEntries)).Msg("Loading config entries")

	p := pool.New().WithMaxGoroutines(4)
	for _, entry := range storedEntries {
		entry := entry

		p.Go(func() {
			m.setupWithRetry(entry)
		})
	}
	p.Wait()

	return nil
}

// Stop unloads every entry without deleting it
func (m *Manager) Stop() {
	m.mutex.Lock()
	runtimes := m.runtimes
	m.runtimes = map[string]*Runtime{}
	for _, setup := range m.setups {
		setup.cancel()
	}
	m.setups = map[string]*pendingSetup{}
	m.mutex.Unlock()

	for _, runtime := range runtimes {
		runtime.stop()
	}
}

// CreateEntry persists a new entry and loads it
func (m *Manager) CreateEntry(ctx context.Context, title string, data entries.Data) (*entries.Entry, error) {
	entry, err := m.Store.Create(ctx, title, data)
	if err != nil {
		return nil, err
	}

	log.Info().Str("entry", entry.EntryID).Str("title", entry.Title).Msg("Created config entry")

	m.setupWithRetry(entry)

	return entry, nil
}

// RemoveEntry unloads the entry and deletes it from the store
func (m *Manager) RemoveEntry(ctx context.Context, entryID string) error {
	m.UnloadEntry(entryID)

	if err := m.Store.Delete(ctx, entryID); err != nil {
		return err
	}

	if m.Cache != nil {
		if err := m.Cache.Delete(ctx, entryID); err != nil {
			log.Debug().Err(err).Str("entry", entryID).Msg("Failed to delete cached snapshot")
		}
	}

	log.Info().Str("entry", entryID).Msg("Removed config entry")

	return nil
}

// UnloadEntry stops the coordinator of an entry, or cancels its setup while
// the first refresh or a retry is still running
func (m *Manager) UnloadEntry(entryID string) bool {
	m.mutex.Lock()
	runtime, loaded := m.runtimes[entryID]
	delete(m.runtimes, entryID)
	setup, settingUp := m.setups[entryID]
	if settingUp {
		setup.cancel()
		delete(m.setups, entryID)
	}
	m.mutex.Unlock()

	if loaded {
		runtime.stop()
	}

	return loaded || settingUp
}

// SetupEntry builds the coordinator and sensor of an entry and performs the
// first refresh. Nothing is registered when the first refresh fails.
func (m *Manager) SetupEntry(ctx context.Context, entry *entries.Entry) (*Runtime, error) {
	c := departures.NewCoordinator(
		departures.Params{
			Start:       entry.Data.Start,
			Destination: entry.Data.Destination,
			Limit:       entry.Data.MaxConnections,
			RouteType:   entry.Data.RouteType,
			Offset:      entry.Data.Offset,
		},
		m.Fetcher,
		m.Table,
		m.Location,
		m.Interval,
	)

	if err := c.FirstRefresh(ctx); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	runtime := &Runtime{
		Entry:       entry,
		Coordinator: c,
		Sensor:      sensor.New(entry.EntryID, c.StartName, c.DestinationName, c),
	}
	runtime.removeListener = c.AddListener(func() {
		runtime.onUpdate(m.Cache, m.Publisher)
	})

	// Unloading cancels ctx under the same lock, so a removed entry is never
	// registered.
	m.mutex.Lock()
	if ctx.Err() != nil {
		m.mutex.Unlock()
		runtime.removeListener()
		return nil, ctx.Err()
	}
	previous := m.runtimes[entry.EntryID]
	m.runtimes[entry.EntryID] = runtime
	runtime.start(m.ctx)
	m.mutex.Unlock()

	if previous != nil {
		previous.stop()
	}

	runtime.onUpdate(m.Cache, m.Publisher)

	log.Info().Str("entry", entry.EntryID).Str("sensor", runtime.Sensor.EntityID()).Msg("Loaded config entry")

	return runtime, nil
}

func (m *Manager) setupWithRetry(entry *entries.Entry) {
	m.mutex.Lock()
	if _, exists := m.setups[entry.EntryID]; exists {
		m.mutex.Unlock()
		return
	}
	setupCtx, cancel := context.WithCancel(m.ctx)
	setup := &pendingSetup{cancel: cancel}
	m.setups[entry.EntryID] = setup
	m.mutex.Unlock()

	_, err := m.SetupEntry(setupCtx, entry)
	if err == nil || setupCtx.Err() != nil {
		m.finishSetup(entry.EntryID, setup)
		return
	}

	log.Warn().Err(err).Str("entry", entry.EntryID).Msg("Config entry not ready, retrying in background")

	m.mutex.Lock()
	if setupCtx.Err() != nil {
		m.mutex.Unlock()
		return
	}
	setup.retrying = true
	m.mutex.Unlock()

	go func() {
		defer m.finishSetup(entry.EntryID, setup)

		err := backoff.RetryNotify(func() error {
			_, err := m.SetupEntry(setupCtx, entry)
			if err != nil && !errors.Is(err, coordinator.ErrNotReady) {
				return backoff.Permanent(err)
			}
			return err
		}, backoff.WithContext(m.RetryBackOff(), setupCtx), func(err error, wait time.Duration) {
			log.Debug().Err(err).Str("entry", entry.EntryID).Dur("wait", wait).Msg("Config entry still not ready")
		})

		if err != nil && setupCtx.Err() == nil {
			log.Error().Err(err).Str("entry", entry.EntryID).Msg("Config entry setup failed")
		}
	}()
}

func (m *Manager) finishSetup(entryID string, setup *pendingSetup) {
	m.mutex.Lock()
	if m.setups[entryID] == setup {
		delete(m.setups, entryID)
	}
	m.mutex.Unlock()

	setup.cancel()
}

// Sync loads stored entries the manager does not know yet and unloads
// entries that are no longer stored
func (m *Manager) Sync(ctx context.Context) error {
	storedEntries, err := m.Store.List(ctx)
	if err != nil {
		return err
	}

	stored := map[string]bool{}
	for _, entry := range storedEntries {
		stored[entry.EntryID] = true
	}

	var removed []string
	m.mutex.RLock()
	for entryID := range m.runtimes {
		if !stored[entryID] {
			removed = append(removed, entryID)
		}
	}
	for entryID := range m.setups {
		if !stored[entryID] {
			removed = append(removed, entryID)
		}
	}
	m.mutex.RUnlock()

	for _, entryID := range removed {
		m.UnloadEntry(entryID)
		log.Info().Str("entry", entryID).Msg("Unloaded config entry removed from store")
	}

	util.InPlaceFilter(&storedEntries, func(entry *entries.Entry) bool {
		return !m.known(entry.EntryID)
	})

	for _, entry := range storedEntries {
		m.setupWithRetry(entry)
	}

	return nil
}

func (m *Manager) known(entryID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, loaded := m.runtimes[entryID]
	_, settingUp := m.setups[entryID]

	return loaded || settingUp
}

func (m *Manager) Runtime(entryID string) (*Runtime, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	runtime, exists := m.runtimes[entryID]
	if !exists {
		return nil, ErrNotLoaded
	}

	return runtime, nil
}

func (m *Manager) Runtimes() []*Runtime {
	m.mutex.RLock()
	runtimes := make([]*Runtime, 0, len(m.runtimes))
	for _, runtime := range m.runtimes {
		runtimes = append(runtimes, runtime)
	}
	m.mutex.RUnlock()

	sort.Slice(runtimes, func(i, j int) bool {
		return runtimes[i].Entry.CreatedAt.Before(runtimes[j].Entry.CreatedAt)
	})

	return runtimes
}

// Pending reports whether an entry is waiting for a setup retry
func (m *Manager) Pending(entryID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	setup, exists := m.setups[entryID]
	return exists && setup.retrying
}
