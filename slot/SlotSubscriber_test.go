package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drift-labs/protocol-v2-sub007/lib/event"
)

func TestSlotSubscriberOnlyAdvances(t *testing.T) {
	emitter := event.CreateEventEmitter()
	slots := make(chan uint64, 4)
	emitter.On(EventNewSlot, func(data ...interface{}) {
		slots <- data[0].(uint64)
	})

	subscriber := CreateSlotSubscriber(SlotSubscriberConfig{InitialSlot: 10, EventEmitter: emitter})
	assert.Same(t, emitter, subscriber.GetEventEmitter())
	assert.Equal(t, uint64(10), subscriber.GetSlot())

	assert.False(t, subscriber.Update(10))
	assert.False(t, subscriber.Update(9))
	assert.True(t, subscriber.Update(12))
	assert.Equal(t, uint64(12), subscriber.GetSlot())

	select {
	case slot := <-slots:
		assert.Equal(t, uint64(12), slot)
	case <-time.After(time.Second):
		require.FailNow(t, "no slot event")
	}
	assert.Empty(t, slots)
}

func TestSlotSubscriberDefaultEmitter(t *testing.T) {
	subscriber := CreateSlotSubscriber(SlotSubscriberConfig{})
	assert.NotNil(t, subscriber.GetEventEmitter())
	assert.Equal(t, uint64(0), subscriber.GetSlot())
	assert.True(t, subscriber.Update(1))
}
