package types

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

var QUOTE_ORACLE_PRICE_DATA = OraclePriceData{
	Price:                           constants.PRICE_PRECISION,
	Slot:                            0,
	Confidence:                      utils.BN(1),
	HasSufficientNumberOfDataPoints: true,
}

var fiveBPS = big.NewInt(500)

// GetStableCoinPrice snaps a stable coin price to exactly 1 when it is within
// min(confidence, 5bps) of it.
func GetStableCoinPrice(
	price *big.Int,
	confidence *big.Int,
) *big.Int {
	if utils.AbsX(utils.SubX(price, constants.QUOTE_PRECISION)).Cmp(utils.Min(confidence, fiveBPS)) < 0 {
		return utils.IntX(constants.QUOTE_PRECISION)
	}
	return price
}
