package orderSubscriber

import (
	"github.com/drift-labs/protocol-v2-sub007/lib/event"
)

const (
	// emitted with (solana.PublicKey, slot uint64)
	EventUpdateReceived = "updateReceived"
	// emitted with (solana.PublicKey, *drift.User, slot uint64)
	EventUserUpdated = "userUpdated"
	// emitted with (solana.PublicKey, *drift.User, []*drift.Order, slot uint64)
	EventOrderCreated = "orderCreated"
)

type OrderSubscriberConfig struct {
	PerpMarketIndexes []uint16
	SpotMarketIndexes []uint16
	EventEmitter      *event.EventEmitter
}
