package event

import (
	"slices"
	"sync"

	"github.com/rs/xid"
)

type CallbackItem struct {
	Id        string
	Priority  int
	IsOnetime bool
	Callback  Callback
}
type Callback func(object ...interface{})

// EventEmitter delivers each Emit to the registered callbacks on their own
// goroutines, ordered by ascending priority at dispatch time.
type EventEmitter struct {
	callbacks map[string][]CallbackItem
	mxState   *sync.RWMutex
}

func CreateEventEmitter() *EventEmitter {
	return &EventEmitter{
		callbacks: make(map[string][]CallbackItem),
		mxState:   new(sync.RWMutex),
	}
}

func (s *EventEmitter) addHandler(event string, callbackItem CallbackItem) {
	defer s.mxState.Unlock()
	s.mxState.Lock()
	callbacks := s.callbacks[event]
	idx := slices.IndexFunc(callbacks, func(item CallbackItem) bool {
		return item.Priority > callbackItem.Priority
	})
	if idx < 0 {
		idx = len(callbacks)
	}
	s.callbacks[event] = slices.Insert(callbacks, idx, callbackItem)
}

func (s *EventEmitter) On(event string, callback Callback, priorityArr ...int) string {
	priority := 100
	if len(priorityArr) > 0 {
		priority = priorityArr[0]
	}
	id := xid.New().String()
	s.addHandler(event, CallbackItem{Callback: callback, Priority: priority, Id: id})
	return id
}

func (s *EventEmitter) Once(event string, callback Callback, priorityArr ...int) string {
	priority := 100
	if len(priorityArr) > 0 {
		priority = priorityArr[0]
	}
	id := xid.New().String()
	s.addHandler(event, CallbackItem{Callback: callback, Priority: priority, Id: id, IsOnetime: true})
	return id
}

func (s *EventEmitter) Off(event string, callbackIds ...string) {
	defer s.mxState.Unlock()
	s.mxState.Lock()
	if len(callbackIds) == 0 {
		delete(s.callbacks, event)
		return
	}
	callbacks, exists := s.callbacks[event]
	if exists {
		s.callbacks[event] = slices.DeleteFunc(slices.Clone(callbacks), func(cb CallbackItem) bool {
			return slices.Contains(callbackIds, cb.Id)
		})
	}
}

func (s *EventEmitter) Emit(event string, object ...interface{}) {
	s.mxState.RLock()
	callbacks, exists := s.callbacks[event]
	if !exists {
		s.mxState.RUnlock()
		return
	}
	var removed []string
	for _, callback := range callbacks {
		go (callback.Callback)(object...)
		if callback.IsOnetime {
			removed = append(removed, callback.Id)
		}
	}
	s.mxState.RUnlock()
	if len(removed) > 0 {
		s.Off(event, removed...)
	}
}

func (s *EventEmitter) ListenerCount(event string) int {
	defer s.mxState.RUnlock()
	s.mxState.RLock()
	return len(s.callbacks[event])
}
