package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDeliversArguments(t *testing.T) {
	emitter := CreateEventEmitter()
	received := make(chan []interface{}, 1)
	emitter.On("update", func(object ...interface{}) {
		received <- object
	})

	emitter.Emit("update", "dlob", uint64(7))

	select {
	case object := <-received:
		require.Len(t, object, 2)
		assert.Equal(t, "dlob", object[0])
		assert.Equal(t, uint64(7), object[1])
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}
}

func TestOnceRemovesItself(t *testing.T) {
	emitter := CreateEventEmitter()
	emitter.Once("error", func(object ...interface{}) {})
	assert.Equal(t, 1, emitter.ListenerCount("error"))

	emitter.Emit("error")
	assert.Equal(t, 0, emitter.ListenerCount("error"))
}

func TestOffById(t *testing.T) {
	emitter := CreateEventEmitter()
	first := emitter.On("update", func(object ...interface{}) {})
	second := emitter.On("update", func(object ...interface{}) {}, 10)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, emitter.ListenerCount("update"))

	emitter.Off("update", first)
	assert.Equal(t, 1, emitter.ListenerCount("update"))

	emitter.Off("update")
	assert.Equal(t, 0, emitter.ListenerCount("update"))
}

func TestPriorityOrder(t *testing.T) {
	emitter := CreateEventEmitter()
	low := emitter.On("update", func(object ...interface{}) {}, 200)
	high := emitter.On("update", func(object ...interface{}) {}, 1)
	mid := emitter.On("update", func(object ...interface{}) {})

	ids := make([]string, 0, 3)
	for _, item := range emitter.callbacks["update"] {
		ids = append(ids, item.Id)
	}
	assert.Equal(t, []string{high, mid, low}, ids)
}
