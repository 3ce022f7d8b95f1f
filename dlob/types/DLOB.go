package types

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
)

type DLOBFilterFcn func(node IDLOBNode) bool

// L2Params selects one market's aggregated book. Depth <= 0 means unbounded.
type L2Params struct {
	MarketIndex          uint16
	MarketType           drift.MarketType
	Slot                 uint64
	OraclePriceData      *oracles.OraclePriceData
	Depth                int
	FallbackL2Generators []*L2OrderBookGenerator
}

type IDLOB interface {
	GetRestingLimitBids(
		marketIndex uint16,
		slot uint64,
		marketType drift.MarketType,
		oraclePriceData *oracles.OraclePriceData,
		filterFcn DLOBFilterFcn,
	) *common.Generator[IDLOBNode, int]

	GetRestingLimitAsks(
		marketIndex uint16,
		slot uint64,
		marketType drift.MarketType,
		oraclePriceData *oracles.OraclePriceData,
		filterFcn DLOBFilterFcn,
	) *common.Generator[IDLOBNode, int]

	FindNodesToFill(
		marketIndex uint16,
		fallbackBid *big.Int,
		fallbackAsk *big.Int,
		slot uint64,
		ts int64,
		marketType drift.MarketType,
		oraclePriceData *oracles.OraclePriceData,
		stateAccount *drift.State,
		marketAccount *types2.MarketAccount,
	) []*NodeToFill

	FindNodesToTrigger(
		marketIndex uint16,
		slot uint64,
		oraclePrice *big.Int,
		marketType drift.MarketType,
		stateAccount *drift.State,
	) []*NodeToTrigger

	FindJitAuctionNodesToFill(
		marketIndex uint16,
		slot uint64,
		oraclePriceData *oracles.OraclePriceData,
		marketType drift.MarketType,
	) []*NodeToFill

	HandleOrderRecord(record *drift.OrderRecord, slot uint64)

	HandleOrderActionRecord(record *drift.OrderActionRecord, slot uint64)

	UpdateByUser(solana.PublicKey, *drift.User, uint64)

	GetBestAsk(uint16, uint64, drift.MarketType, *oracles.OraclePriceData) *big.Int

	GetBestBid(uint16, uint64, drift.MarketType, *oracles.OraclePriceData) *big.Int

	GetBestMakers(uint16, drift.MarketType, drift.PositionDirection, uint64, *oracles.OraclePriceData, int) []solana.PublicKey

	EstimateFillWithExactBaseAmount(
		uint16,
		drift.MarketType,
		*big.Int,
		drift.PositionDirection,
		uint64,
		*oracles.OraclePriceData,
	) *big.Int

	GetL2(params L2Params) *L2OrderBook

	GetL3(
		marketIndex uint16,
		marketType drift.MarketType,
		slot uint64,
		oraclePriceData *oracles.OraclePriceData,
	) *L3OrderBook

	Size() int
}
