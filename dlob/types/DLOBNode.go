package types

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
)

type DLOBNodeType int

const (
	NodeTypeTakingLimit DLOBNodeType = iota
	NodeTypeRestingLimit
	NodeTypeFloatingLimit
	NodeTypeMarket
	NodeTypeTrigger
	NodeTypeSignedMsg
	NodeTypeVamm
)

func (value DLOBNodeType) String() string {
	switch value {
	case NodeTypeTrigger:
		return "trg"
	case NodeTypeMarket:
		return "mark"
	case NodeTypeFloatingLimit:
		return "fltLmt"
	case NodeTypeRestingLimit:
		return "rstLmt"
	case NodeTypeTakingLimit:
		return "takLmt"
	case NodeTypeSignedMsg:
		return "sgnMsg"
	case NodeTypeVamm:
		return "vamm"
	default:
		return "unknown"
	}
}

type DLOBNodeSubType int

const (
	NodeSubTypeAsk DLOBNodeSubType = iota
	NodeSubTypeBid
	NodeSubTypeAbove
	NodeSubTypeBelow
)

func (value DLOBNodeSubType) String() string {
	switch value {
	case NodeSubTypeAbove:
		return "above"
	case NodeSubTypeBelow:
		return "below"
	case NodeSubTypeBid:
		return "bid"
	case NodeSubTypeAsk:
		return "ask"
	default:
		return "unknownSubType"
	}
}

type IDLOBNode interface {
	GetPrice(oraclePriceData *oracles.OraclePriceData, slot uint64) *big.Int
	GetNodeType() DLOBNodeType
	GetSortValue() int64
	IsVammNode() bool
	IsBaseFilled() bool
	GetOrder() *drift.Order
	GetUserAccount() string
	IsSignedMsg() bool
	IsProtectedMaker() bool
	IsHaveFilled() bool
	IsHaveTrigger() bool
	SetTrigger(bool)
	TryFill()
	ResetTryFill()
	GetTryFill() int64
}

// NodeToFill is a taker and the makers it crossed. No makers means the
// taker crossed fallback liquidity or has expired.
type NodeToFill struct {
	Node       IDLOBNode
	MakerNodes []IDLOBNode
}

type NodeToTrigger struct {
	Node IDLOBNode
}

type OrderBookCallback func()

type NodeToUpdate struct {
	Side DLOBNodeSubType
	Node IDLOBNode
}
