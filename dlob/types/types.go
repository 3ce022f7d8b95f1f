package types

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	drift2 "github.com/drift-labs/protocol-v2-sub007/lib/drift"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
)

type DLOBSubscriptionConfig struct {
	DlobSource      IDLOBSource
	SlotSource      ISlotSource
	UpdateFrequency time.Duration
	// prices L2/L3 snapshots; GetL2 and GetL3 return nil without it
	MarketDataSource IMarketDataSource
	// optional; metrics are not registered when nil
	Registerer prometheus.Registerer
}

type IDLOBSource interface {
	GetDLOB(slot uint64) (IDLOB, error)
}

type ISlotSource interface {
	GetSlot() uint64
}

// IMarketDataSource supplies the per market reference data L2 snapshots and
// vAMM levels are priced from.
type IMarketDataSource interface {
	oracles.IOraclePriceSource
	GetPerpMarketAccount(marketIndex uint16) *drift2.PerpMarket
	GetStateAccount() *drift2.State
}

type BulkOrder struct {
	Order            *drift2.Order
	UserAccount      solana.PublicKey
	Slot             uint64
	IsProtectedMaker bool
}
