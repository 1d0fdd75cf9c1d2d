package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 2 * time.Minute

var ErrNotReady = errors.New("first refresh failed")

// UpdateFailed marks a failed refresh cycle. The previous data stays in place.
type UpdateFailed struct {
	Name string
	Err  error
}

func (e *UpdateFailed) Error() string {
	return fmt.Sprintf("error fetching %s data: %s", e.Name, e.Err)
}

func (e *UpdateFailed) Unwrap() error {
	return e.Err
}

type UpdateFunc[T any] func(ctx context.Context) (T, error)

// Coordinator periodically refreshes a single value and tells its listeners
// after every cycle. Cycles never overlap.
type Coordinator[T any] struct {
	Name     string
	Interval time.Duration
	Update   UpdateFunc[T]

	refreshMutex sync.Mutex

	mutex             sync.RWMutex
	data              T
	hasData           bool
	lastUpdateSuccess bool
	lastError         error
	lastUpdate        time.Time

	listenersMutex sync.Mutex
	listeners      map[int]func()
	nextListenerID int

	logger zerolog.Logger
}

func New[T any](name string, interval time.Duration, update UpdateFunc[T]) *Coordinator[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Coordinator[T]{
		Name:              name,
		Interval:          interval,
		Update:            update,
		lastUpdateSuccess: true,
		listeners:         map[int]func(){},
		logger:            log.With().Str("coordinator", name).Logger(),
	}
}

// FirstRefresh performs the eager refresh done before anything is registered
// against the coordinator. A failure wraps ErrNotReady.
func (c *Coordinator[T]) FirstRefresh(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	return nil
}

func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	c.refreshMutex.Lock()
	defer c.refreshMutex.Unlock()

	startTime := time.Now()
	data, err := c.Update(ctx)

	c.mutex.Lock()
	c.lastUpdate = time.Now()
	if err != nil {
		var updateFailed *UpdateFailed
		if !errors.As(err, &updateFailed) {
			err = &UpdateFailed{Name: c.Name, Err: err}
		}

		if c.lastUpdateSuccess {
			c.logger.Error().Err(err).Msg("Update failed")
		} else {
			c.logger.Debug().Err(err).Msg("Update still failing")
		}

		c.lastUpdateSuccess = false
		c.lastError = err
	} else {
		if !c.lastUpdateSuccess {
			c.logger.Info().Msg("Fetching data recovered")
		}

		c.data = data
		c.hasData = true
		c.lastUpdateSuccess = true
		c.lastError = nil

		c.logger.Debug().Str("duration", time.Since(startTime).String()).Msg("Finished fetching data")
	}
	c.mutex.Unlock()

	c.notifyListeners()

	return err
}

// Run refreshes on every interval until ctx is cancelled. The first refresh
// is expected to have happened already.
func (c *Coordinator[T]) Run(ctx context.Context) {
	c.logger.Info().Dur("interval", c.Interval).Msg("Starting coordinator")

	for {
		c.mutex.RLock()
		waitTime := c.Interval - time.Since(c.lastUpdate)
		c.mutex.RUnlock()

		if waitTime > 0 {
			timer := time.NewTimer(waitTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				c.logger.Info().Msg("Stopping coordinator")
				return
			case <-timer.C:
			}
		}

		if ctx.Err() != nil {
			c.logger.Info().Msg("Stopping coordinator")
			return
		}

		c.Refresh(ctx)
	}
}

// Data returns the latest successfully fetched value
func (c *Coordinator[T]) Data() (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.data, c.hasData
}

func (c *Coordinator[T]) LastUpdateSuccess() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.lastUpdateSuccess
}

func (c *Coordinator[T]) LastError() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.lastError
}

func (c *Coordinator[T]) LastUpdate() time.Time {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.lastUpdate
}

// AddListener registers fn to be called after every refresh cycle and returns
// a function that removes it again.
func (c *Coordinator[T]) AddListener(fn func()) func() {
	c.listenersMutex.Lock()
	defer c.listenersMutex.Unlock()

	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn

	return func() {
		c.listenersMutex.Lock()
		defer c.listenersMutex.Unlock()

		delete(c.listeners, id)
	}
}

func (c *Coordinator[T]) notifyListeners() {
	c.listenersMutex.Lock()
	listeners := make([]func(), 0, len(c.listeners))
	for _, listener := range c.listeners {
		listeners = append(listeners, listener)
	}
	c.listenersMutex.Unlock()

	for _, listener := range listeners {
		listener()
	}
}
