package types

import (
	"math/big"
)

type OraclePriceData struct {
	Price                           *big.Int
	Slot                            uint64
	Confidence                      *big.Int
	HasSufficientNumberOfDataPoints bool
	Twap                            *big.Int
	TwapConfidence                  *big.Int
	MaxPrice                        *big.Int
}

// IOraclePriceSource is the read side the DLOB subscriber needs to price
// trigger scans and L2 snapshots. Oracle account decoding lives elsewhere.
type IOraclePriceSource interface {
	GetOraclePriceDataForPerpMarket(marketIndex uint16) *OraclePriceData
	GetOraclePriceDataForSpotMarket(marketIndex uint16) *OraclePriceData
}
