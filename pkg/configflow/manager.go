package configflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/departures"
	"github.com/travigo/vvs/pkg/stations"
)

var (
	ErrFlowNotFound   = errors.New("flow not found")
	ErrUnknownHandler = errors.New("unknown flow handler")
	ErrInvalidInput   = errors.New("invalid flow input")
)

// Flow is one run of a setup wizard
type Flow interface {
	Handler() string
	Show() Result
	Submit(ctx context.Context, body []byte) (Result, error)
}

type runningFlow struct {
	mutex sync.Mutex
	flow  Flow
}

// Manager keeps the flows in progress. Finished and aborted flows are dropped.
type Manager struct {
	Table   *stations.Table
	Fetcher departures.TripFetcher
	Creator EntryCreator

	mutex sync.Mutex
	flows map[string]*runningFlow
}

func NewManager(table *stations.Table, fetcher departures.TripFetcher, creator EntryCreator) *Manager {
	return &Manager{
		Table:   table,
		Fetcher: fetcher,
		Creator: creator,
		flows:   map[string]*runningFlow{},
	}
}

func (m *Manager) Init(handler string) (Result, error) {
	var flow Flow

	switch handler {
	case HandlerSearch, "":
		flow = NewSearchFlow(m.Table, m.Fetcher, m.Creator)
	case HandlerDirect:
		flow = NewDirectFlow(m.Table, m.Fetcher, m.Creator)
	default:
		return Result{}, ErrUnknownHandler
	}

	flowID := uuid.NewString()

	m.mutex.Lock()
	m.flows[flowID] = &runningFlow{flow: flow}
	m.mutex.Unlock()

	log.Debug().Str("flow", flowID).Str("handler", flow.Handler()).Msg("Started config flow")

	return withID(flow.Show(), flowID, flow), nil
}

func (m *Manager) lookup(flowID string) (*runningFlow, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	running, exists := m.flows[flowID]
	if !exists {
		return nil, ErrFlowNotFound
	}

	return running, nil
}

func (m *Manager) Get(flowID string) (Result, error) {
	running, err := m.lookup(flowID)
	if err != nil {
		return Result{}, err
	}

	running.mutex.Lock()
	defer running.mutex.Unlock()

	return withID(running.flow.Show(), flowID, running.flow), nil
}

// Configure submits body to the current step of the flow
func (m *Manager) Configure(ctx context.Context, flowID string, body []byte) (Result, error) {
	running, err := m.lookup(flowID)
	if err != nil {
		return Result{}, err
	}

	running.mutex.Lock()
	defer running.mutex.Unlock()

	result, err := running.flow.Submit(ctx, body)
	if err != nil {
		return Result{}, err
	}

	if result.Type == ResultTypeCreateEntry {
		m.remove(flowID)
		log.Info().Str("flow", flowID).Str("title", result.Title).Msg("Config flow finished")
	}

	return withID(result, flowID, running.flow), nil
}

func (m *Manager) Abort(flowID string) (Result, error) {
	running, err := m.lookup(flowID)
	if err != nil {
		return Result{}, err
	}
	m.remove(flowID)

	return withID(Result{Type: ResultTypeAbort}, flowID, running.flow), nil
}

func (m *Manager) remove(flowID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.flows, flowID)
}

func withID(result Result, flowID string, flow Flow) Result {
	result.FlowID = flowID
	result.Handler = flow.Handler()

	return result
}
