package slot

import (
	"sync"

	"github.com/drift-labs/protocol-v2-sub007/lib/event"
)

// emitted with (slot uint64) whenever the tracked slot advances
const EventNewSlot = "newSlot"

type SlotSubscriberConfig struct {
	// slot to start from; later updates at or below it are ignored
	InitialSlot  uint64
	EventEmitter *event.EventEmitter
}

// SlotSubscriber tracks the highest slot reported by whatever feed the caller
// runs. It satisfies the DLOB subscriber's slot source.
type SlotSubscriber struct {
	currentSlot  uint64
	eventEmitter *event.EventEmitter
	mxState      *sync.RWMutex
}

func CreateSlotSubscriber(config SlotSubscriberConfig) *SlotSubscriber {
	eventEmitter := config.EventEmitter
	if eventEmitter == nil {
		eventEmitter = event.CreateEventEmitter()
	}
	return &SlotSubscriber{
		currentSlot:  config.InitialSlot,
		eventEmitter: eventEmitter,
		mxState:      new(sync.RWMutex),
	}
}

func (p *SlotSubscriber) GetEventEmitter() *event.EventEmitter {
	return p.eventEmitter
}

// Update records slot and reports whether it advanced the tracked slot.
func (p *SlotSubscriber) Update(slot uint64) bool {
	p.mxState.Lock()
	if slot <= p.currentSlot {
		p.mxState.Unlock()
		return false
	}
	p.currentSlot = slot
	p.mxState.Unlock()

	p.eventEmitter.Emit(EventNewSlot, slot)
	return true
}

func (p *SlotSubscriber) GetSlot() uint64 {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.currentSlot
}
