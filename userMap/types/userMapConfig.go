package types

import (
	"github.com/drift-labs/protocol-v2-sub007/lib/event"
)

// passed into UserMap.GetUniqueAuthorities to filter users
type UserAccountFilterCriteria struct {
	// only return users that have open orders
	HasOpenOrders bool
}

type UserMapConfig struct {
	// receives EventUserOrderUpdated whenever a user's order array changes.
	// A private emitter is created when nil.
	EventEmitter *event.EventEmitter

	// True to keep users without any open order.
	IncludeIdle bool
}
