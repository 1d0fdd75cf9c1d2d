package notify

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/vvs/pkg/events"
)

type StateChangedHandler func(event events.StateChangedEvent)

type StateChangedBatchConsumer struct {
	Handler StateChangedHandler
}

func NewStateChangedBatchConsumer(handler StateChangedHandler) *StateChangedBatchConsumer {
	return &StateChangedBatchConsumer{Handler: handler}
}

func LogStateChanged(event events.StateChangedEvent) {
	log.Info().
		Str("entity", event.EntityID).
		Str("entry", event.EntryID).
		Str("old", event.OldState).
		Str("new", event.NewState).
		Time("time", event.Timestamp).
		Msg("Next departure changed")
}

func (c *StateChangedBatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	for _, payload := range payloads {
		var event events.StateChangedEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Error().Err(err).Msg("Failed to decode state change event")
			continue
		}

		c.Handler(event)
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to ack state change event")
		}
	}
}
