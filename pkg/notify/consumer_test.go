package notify

import (
	"testing"

	"github.com/adjust/rmq/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/vvs/pkg/events"
)

func TestConsumeDecodesAndAcks(t *testing.T) {
	var received []events.StateChangedEvent
	consumer := NewStateChangedBatchConsumer(func(event events.StateChangedEvent) {
		received = append(received, event)
	})

	good := rmq.NewTestDeliveryString(`{"type":"StateChanged","entity_id":"sensor.vvs_a_to_b","entry_id":"e1","old_state":"unknown","new_state":"10:04"}`)
	broken := rmq.NewTestDeliveryString(`{not json`)

	consumer.Consume(rmq.Deliveries{good, broken})

	require.Len(t, received, 1)
	assert.Equal(t, "sensor.vvs_a_to_b", received[0].EntityID)
	assert.Equal(t, "10:04", received[0].NewState)

	assert.Equal(t, rmq.Acked, good.State)
	assert.Equal(t, rmq.Acked, broken.State)
}
