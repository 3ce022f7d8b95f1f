package types

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
)

// MarketAccount holds exactly one of the two market kinds.
type MarketAccount struct {
	PerpMarketAccount *drift.PerpMarket
	SpotMarketAccount *drift.SpotMarket
}

func (p *MarketAccount) MarketType() drift.MarketType {
	if p.PerpMarketAccount != nil {
		return drift.MarketType_Perp
	}
	return drift.MarketType_Spot
}

// ProtectedMakerParams widens the quotes of protected makers away from the
// oracle by at least a few ticks.
type ProtectedMakerParams struct {
	LimitPriceDivisor uint8
	DynamicOffset     *big.Int
	TickSize          *big.Int
}
