package constants

import "math/big"

var (
	ZERO = big.NewInt(0)
	ONE  = big.NewInt(1)
	TWO  = big.NewInt(2)
	TEN  = big.NewInt(10)

	PERCENTAGE_PRECISION     = big.NewInt(1_000_000)
	QUOTE_PRECISION          = big.NewInt(1_000_000)
	PRICE_PRECISION          = big.NewInt(1_000_000)
	PEG_PRECISION            = big.NewInt(1_000_000)
	BID_ASK_SPREAD_PRECISION = big.NewInt(1_000_000)
	BASE_PRECISION           = big.NewInt(1_000_000_000)
	AMM_RESERVE_PRECISION    = big.NewInt(1_000_000_000)

	QUOTE_PRECISION_EXP = int32(6)
	PRICE_PRECISION_EXP = int32(6)
	BASE_PRECISION_EXP  = int32(9)

	// reserve (1e9) * peg (1e6) / quote (1e6)
	AMM_TIMES_PEG_TO_QUOTE_PRECISION_RATIO = big.NewInt(1_000_000_000)
)
