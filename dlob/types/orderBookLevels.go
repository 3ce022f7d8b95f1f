package types

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

type LiquiditySource string

const (
	LiquiditySourceSerum      LiquiditySource = "serum"
	LiquiditySourceVamm       LiquiditySource = "vamm"
	LiquiditySourceDlob       LiquiditySource = "dlob"
	LiquiditySourcePhoenix    LiquiditySource = "phoenix"
	LiquiditySourceOpenbook   LiquiditySource = "openbook"
	LiquiditySourceIndicative LiquiditySource = "indicative"
)

type L2Level struct {
	Price   *big.Int
	Size    *big.Int
	Sources map[LiquiditySource]*big.Int
}

type L2OrderBook struct {
	Asks []*L2Level
	Bids []*L2Level
	Slot uint64
}

// L2OrderBookGenerator hands out fresh ask and bid level generators on
// every call.
type L2OrderBookGenerator struct {
	GetL2Asks func() *common.Generator[*L2Level, int]
	GetL2Bids func() *common.Generator[*L2Level, int]
}

type L3Level struct {
	Price   *big.Int
	Size    *big.Int
	Maker   solana.PublicKey
	OrderId uint32
}

type L3OrderBook struct {
	Asks []*L3Level
	Bids []*L3Level
	Slot uint64
}

var DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS = []*big.Int{
	utils.MulX(utils.BN(500), constants.QUOTE_PRECISION),
	utils.MulX(utils.BN(1000), constants.QUOTE_PRECISION),
	utils.MulX(utils.BN(2000), constants.QUOTE_PRECISION),
	utils.MulX(utils.BN(5000), constants.QUOTE_PRECISION),
}

// L2LevelDecimal is a display rendition of an L2Level in human units.
type L2LevelDecimal struct {
	Price   decimal.Decimal                     `json:"price"`
	Size    decimal.Decimal                     `json:"size"`
	Sources map[LiquiditySource]decimal.Decimal `json:"sources"`
}
