package math

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

func IsAuctionComplete(order *drift.Order, slot uint64) bool {
	if order.AuctionDuration == 0 {
		return true
	}

	return slotsSince(order, slot) > uint64(order.AuctionDuration)
}

func IsFallbackAvailableLiquiditySource(
	order *drift.Order,
	minAuctionDuration int,
	slot uint64,
) bool {
	if minAuctionDuration == 0 {
		return true
	}

	return slotsSince(order, slot) > uint64(minAuctionDuration)
}

// slotsSince is zero for orders stamped after slot.
func slotsSince(order *drift.Order, slot uint64) uint64 {
	if slot < order.Slot {
		return 0
	}
	return slot - order.Slot
}

func GetAuctionPrice(
	order *drift.Order,
	slot uint64,
	oraclePrice *big.Int,
) *big.Int {
	switch order.OrderType {
	case drift.OrderType_Market, drift.OrderType_TriggerMarket, drift.OrderType_Limit, drift.OrderType_TriggerLimit:
		return GetAuctionPriceForFixedAuction(order, slot)
	case drift.OrderType_Oracle:
		return GetAuctionPriceForOracleOffsetAuction(order, slot, oraclePrice)
	default:
		return nil
	}
}

func auctionPriceDelta(order *drift.Order, slot uint64) *big.Int {
	deltaDenominator := uint64(order.AuctionDuration)
	deltaNumerator := min(slotsSince(order, slot), deltaDenominator)

	var spread int64
	if order.Direction == drift.PositionDirection_Long {
		spread = order.AuctionEndPrice - order.AuctionStartPrice
	} else {
		spread = order.AuctionStartPrice - order.AuctionEndPrice
	}
	return utils.DivX(
		utils.MulX(utils.BN(spread), utils.BN(deltaNumerator)),
		utils.BN(deltaDenominator),
	)
}

func GetAuctionPriceForFixedAuction(order *drift.Order, slot uint64) *big.Int {
	if order.AuctionDuration == 0 {
		return utils.BN(order.AuctionEndPrice)
	}

	priceDelta := auctionPriceDelta(order, slot)
	if order.Direction == drift.PositionDirection_Long {
		return utils.AddX(utils.BN(order.AuctionStartPrice), priceDelta)
	}
	return utils.SubX(utils.BN(order.AuctionStartPrice), priceDelta)
}

func GetAuctionPriceForOracleOffsetAuction(
	order *drift.Order,
	slot uint64,
	oraclePrice *big.Int,
) *big.Int {
	if order.AuctionDuration == 0 {
		return utils.AddX(oraclePrice, utils.BN(order.AuctionEndPrice))
	}

	priceOffsetDelta := auctionPriceDelta(order, slot)
	var priceOffset *big.Int
	if order.Direction == drift.PositionDirection_Long {
		priceOffset = utils.AddX(utils.BN(order.AuctionStartPrice), priceOffsetDelta)
	} else {
		priceOffset = utils.SubX(utils.BN(order.AuctionStartPrice), priceOffsetDelta)
	}

	return utils.AddX(oraclePrice, priceOffset)
}
