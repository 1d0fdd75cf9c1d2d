package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

const StateChangedQueue = "vvs-state-changed"

type EventType string

const EventTypeStateChanged EventType = "StateChanged"

type StateChangedEvent struct {
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	EntryID   string    `json:"entry_id"`
	OldState  string    `json:"old_state"`
	NewState  string    `json:"new_state"`
	Timestamp time.Time `json:"time"`
}

// Queue is satisfied by rmq.Queue
type Queue interface {
	PublishBytes(payload ...[]byte) error
}

type Publisher struct {
	Queue Queue
}

func NewPublisher(queue Queue) *Publisher {
	return &Publisher{Queue: queue}
}

func (p *Publisher) PublishStateChanged(entryID string, entityID string, oldState string, newState string) error {
	event := StateChangedEvent{
		Type:      EventTypeStateChanged,
		EntityID:  entityID,
		EntryID:   entryID,
		OldState:  oldState,
		NewState:  newState,
		Timestamp: time.Now(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.Queue.PublishBytes(eventBytes); err != nil {
		log.Error().Err(err).Str("entity", entityID).Msg("Failed to publish state change")
		return err
	}

	return nil
}
