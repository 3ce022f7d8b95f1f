package dlob

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
)

const testSlot = uint64(10)

func priceOf(dollars uint64) uint64 {
	return dollars * 1_000_000
}

func baseOf(units uint64) uint64 {
	return units * 1_000_000_000
}

func testOracle() *oracles.OraclePriceData {
	return &oracles.OraclePriceData{
		Price:                           big.NewInt(int64(priceOf(100))),
		Slot:                            testSlot,
		Confidence:                      big.NewInt(1),
		HasSufficientNumberOfDataPoints: true,
	}
}

func newTestUser() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func newTestDLOB() *DLOB {
	dlob := NewDLOB([]uint16{0}, []uint16{0})
	dlob.SetCoinFlip(func() bool { return true })
	return dlob
}

type orderOption func(order *drift.Order)

func postOnly() orderOption {
	return func(order *drift.Order) {
		order.PostOnly = true
	}
}

func withAuction(duration uint8, startPrice int64, endPrice int64) orderOption {
	return func(order *drift.Order) {
		order.AuctionDuration = duration
		order.AuctionStartPrice = startPrice
		order.AuctionEndPrice = endPrice
	}
}

func withTrigger(condition drift.OrderTriggerCondition, triggerPrice uint64) orderOption {
	return func(order *drift.Order) {
		order.TriggerCondition = condition
		order.TriggerPrice = triggerPrice
	}
}

func withMaxTs(maxTs int64) orderOption {
	return func(order *drift.Order) {
		order.MaxTs = maxTs
	}
}

func withFilled(filled uint64) orderOption {
	return func(order *drift.Order) {
		order.BaseAssetAmountFilled = filled
	}
}

func newOrder(
	orderId uint32,
	orderType drift.OrderType,
	direction drift.PositionDirection,
	price uint64,
	baseAssetAmount uint64,
	slot uint64,
	options ...orderOption,
) *drift.Order {
	order := &drift.Order{
		Status:          drift.OrderStatus_Open,
		OrderType:       orderType,
		MarketType:      drift.MarketType_Perp,
		Direction:       direction,
		Price:           price,
		BaseAssetAmount: baseAssetAmount,
		OrderId:         orderId,
		Slot:            slot,
	}
	for _, option := range options {
		option(order)
	}
	return order
}

func limitBid(orderId uint32, price uint64, baseAssetAmount uint64, slot uint64, options ...orderOption) *drift.Order {
	return newOrder(orderId, drift.OrderType_Limit, drift.PositionDirection_Long, price, baseAssetAmount, slot, options...)
}

func limitAsk(orderId uint32, price uint64, baseAssetAmount uint64, slot uint64, options ...orderOption) *drift.Order {
	return newOrder(orderId, drift.OrderType_Limit, drift.PositionDirection_Short, price, baseAssetAmount, slot, options...)
}

func userOf(node types.IDLOBNode) string {
	return node.GetUserAccount()
}

func orderIds(nodes []types.IDLOBNode) []uint32 {
	ids := make([]uint32, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.GetOrder().OrderId)
	}
	return ids
}
