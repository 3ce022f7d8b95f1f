package math

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

// LimitOrderExpiryBuffer is the grace period, in seconds, given to limit
// orders past their MaxTs before they count as expired.
var LimitOrderExpiryBuffer int64 = 15

func StandardizeBaseAssetAmount(
	baseAssetAmount *big.Int,
	stepSize *big.Int,
) *big.Int {
	if stepSize == nil || stepSize.Sign() == 0 {
		return baseAssetAmount
	}
	remainder := utils.ModX(baseAssetAmount, stepSize)
	return utils.SubX(baseAssetAmount, remainder)
}

// StandardizePrice rounds toward the passive side: down for bids, up for asks.
func StandardizePrice(
	price *big.Int,
	tickSize *big.Int,
	direction drift.PositionDirection,
) *big.Int {
	if price.Cmp(constants.ZERO) == 0 || tickSize == nil || tickSize.Sign() == 0 {
		return price
	}

	remainder := utils.ModX(price, tickSize)
	if remainder.Cmp(constants.ZERO) == 0 {
		return price
	}

	if direction == drift.PositionDirection_Long {
		return utils.SubX(price, remainder)
	} else {
		return utils.SubX(utils.AddX(price, tickSize), remainder)
	}
}

// GetLimitPrice returns nil when the order has no price of its own and no
// fallback was given, which callers read as "crosses anything".
func GetLimitPrice(
	order *drift.Order,
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	fallbackPrice *big.Int,
) *big.Int {
	var limitPrice *big.Int
	if HasAuctionPrice(order, slot) {
		limitPrice = GetAuctionPrice(order, slot, oraclePriceData.Price)
	} else if order.OraclePriceOffset != 0 {
		limitPrice = utils.AddX(oraclePriceData.Price, utils.BN(order.OraclePriceOffset))
	} else if order.Price == 0 {
		limitPrice = fallbackPrice
	} else {
		limitPrice = utils.BN(order.Price)
	}

	return limitPrice
}

func HasAuctionPrice(
	order *drift.Order,
	slot uint64,
) bool {
	return !IsAuctionComplete(order, slot) &&
		(order.AuctionStartPrice != 0 || order.AuctionEndPrice != 0)
}

// IsOrderExpired never expires trigger orders; limit orders get
// LimitOrderExpiryBuffer extra seconds when enforceBuffer is set.
func IsOrderExpired(
	order *drift.Order,
	ts int64,
	enforceBuffer bool,
) bool {
	if MustBeTriggered(order) || order.Status != drift.OrderStatus_Open || order.MaxTs == 0 {
		return false
	}

	maxTs := order.MaxTs
	if enforceBuffer && IsLimitOrder(order) {
		maxTs += LimitOrderExpiryBuffer
	}

	return ts > maxTs
}

func IsMarketOrder(order *drift.Order) bool {
	switch order.OrderType {
	case drift.OrderType_Market, drift.OrderType_TriggerMarket, drift.OrderType_Oracle:
		return true
	}
	return false
}

func IsLimitOrder(order *drift.Order) bool {
	return order.OrderType == drift.OrderType_Limit || order.OrderType == drift.OrderType_TriggerLimit
}

func MustBeTriggered(order *drift.Order) bool {
	return order.OrderType == drift.OrderType_TriggerMarket || order.OrderType == drift.OrderType_TriggerLimit
}

func IsTriggered(order *drift.Order) bool {
	return order.TriggerCondition == drift.OrderTriggerCondition_TriggeredAbove ||
		order.TriggerCondition == drift.OrderTriggerCondition_TriggeredBelow
}

func IsRestingLimitOrder(order *drift.Order, slot uint64) bool {
	if !IsLimitOrder(order) {
		return false
	}
	return order.PostOnly || IsAuctionComplete(order, slot)
}

func IsTakingOrder(order *drift.Order, slot uint64) bool {
	return IsMarketOrder(order) || !IsRestingLimitOrder(order, slot)
}

func RemainingBaseAssetAmount(order *drift.Order) uint64 {
	if order.BaseAssetAmountFilled >= order.BaseAssetAmount {
		return 0
	}
	return order.BaseAssetAmount - order.BaseAssetAmountFilled
}
