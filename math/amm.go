package math

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/assert"
	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

// CalculatePrice
/**
 * Reserve price of a constant product curve.
 *
 * @returns price : Precision PRICE_PRECISION
 */
func CalculatePrice(baseAssetReserves *big.Int, quoteAssetReserves *big.Int, pegMultiplier *big.Int) *big.Int {
	if utils.AbsX(baseAssetReserves).Cmp(constants.ZERO) <= 0 {
		return utils.BN(0)
	}

	u := utils.MulX(quoteAssetReserves, constants.PRICE_PRECISION, pegMultiplier)
	return utils.DivX(u, constants.PEG_PRECISION, baseAssetReserves)
}

func CalculateAmmReservesAfterSwap(
	amm *drift.Amm,
	inputAssetType drift.AssetType,
	swapAmount *big.Int,
	swapDirection drift.SwapDirection,
) (*big.Int, *big.Int) {
	assert.Assert(swapAmount.Cmp(constants.ZERO) >= 0, "swapAmount must not be negative")

	var newQuoteAssetReserve *big.Int
	var newBaseAssetReserve *big.Int

	invariant := utils.MulX(amm.SqrtK.BigInt(), amm.SqrtK.BigInt())
	if inputAssetType == drift.AssetType_Quote {
		swapAmount = utils.DivX(utils.MulX(swapAmount, constants.AMM_TIMES_PEG_TO_QUOTE_PRECISION_RATIO), amm.PegMultiplier.BigInt())

		newQuoteAssetReserve, newBaseAssetReserve = CalculateSwapOutput(
			amm.QuoteAssetReserve.BigInt(),
			swapAmount,
			swapDirection,
			invariant,
		)
	} else {
		newBaseAssetReserve, newQuoteAssetReserve = CalculateSwapOutput(
			amm.BaseAssetReserve.BigInt(),
			swapAmount,
			swapDirection,
			invariant,
		)
	}

	return newQuoteAssetReserve, newBaseAssetReserve
}

// CalculateSwapOutput
/**
 * Constant product curve output, agnostic to whether input asset is quote or base.
 *
 * @returns newInputAssetReserve and newOutputAssetReserve after swap. : Precision AMM_RESERVE_PRECISION
 */
func CalculateSwapOutput(
	inputAssetReserve *big.Int,
	swapAmount *big.Int,
	swapDirection drift.SwapDirection,
	invariant *big.Int,
) (*big.Int, *big.Int) {
	var newInputAssetReserve *big.Int
	if swapDirection == drift.SwapDirection_Add {
		newInputAssetReserve = utils.AddX(inputAssetReserve, swapAmount)
	} else {
		newInputAssetReserve = utils.SubX(inputAssetReserve, swapAmount)
	}
	if newInputAssetReserve.Sign() <= 0 {
		return newInputAssetReserve, utils.BN(0)
	}
	newOutputAssetReserve := utils.DivX(invariant, newInputAssetReserve)
	return newInputAssetReserve, newOutputAssetReserve
}

func GetSwapDirection(
	inputAssetType drift.AssetType,
	positionDirection drift.PositionDirection,
) drift.SwapDirection {
	if positionDirection == drift.PositionDirection_Long && inputAssetType == drift.AssetType_Base {
		return drift.SwapDirection_Remove
	}

	if positionDirection == drift.PositionDirection_Short && inputAssetType == drift.AssetType_Quote {
		return drift.SwapDirection_Remove
	}

	return drift.SwapDirection_Add
}

// CalculateMarketOpenBidAsk returns how much base the curve can still absorb
// on each side before hitting its reserve bounds. Asks are negative.
func CalculateMarketOpenBidAsk(
	baseAssetReserve *big.Int,
	minBaseAssetReserve *big.Int,
	maxBaseAssetReserve *big.Int,
	stepSize *big.Int,
) (*big.Int, *big.Int) {
	var openAsks *big.Int
	if minBaseAssetReserve.Cmp(baseAssetReserve) < 0 {
		openAsks = utils.NegX(utils.SubX(baseAssetReserve, minBaseAssetReserve))

		if stepSize != nil && utils.DivX(utils.AbsX(openAsks), utils.BN(2)).Cmp(stepSize) < 0 {
			openAsks = utils.BN(0)
		}
	} else {
		openAsks = utils.BN(0)
	}

	var openBids *big.Int
	if maxBaseAssetReserve.Cmp(baseAssetReserve) > 0 {
		openBids = utils.SubX(maxBaseAssetReserve, baseAssetReserve)

		if stepSize != nil && utils.DivX(openBids, utils.BN(2)).Cmp(stepSize) < 0 {
			openBids = utils.BN(0)
		}
	} else {
		openBids = utils.BN(0)
	}

	return openBids, openAsks
}

func calculateSpreadReserve(spread int64, amm *drift.Amm) *AssetReserve {
	if spread == 0 {
		return &AssetReserve{
			Base:  amm.BaseAssetReserve.BigInt(),
			Quote: amm.QuoteAssetReserve.BigInt(),
		}
	}
	spreadFraction := utils.BN(spread / 2)

	// make non-zero
	if spreadFraction.Cmp(constants.ZERO) == 0 {
		spreadFraction = utils.TT(spread >= 0, utils.BN(1), utils.BN(-1))
	}
	quoteAssetReserveDelta := utils.DivX(
		amm.QuoteAssetReserve.BigInt(),
		utils.DivX(constants.BID_ASK_SPREAD_PRECISION, spreadFraction),
	)

	var quoteAssetReserve *big.Int
	if quoteAssetReserveDelta.Cmp(constants.ZERO) >= 0 {
		quoteAssetReserve = utils.AddX(amm.QuoteAssetReserve.BigInt(), utils.AbsX(quoteAssetReserveDelta))
	} else {
		quoteAssetReserve = utils.SubX(amm.QuoteAssetReserve.BigInt(), utils.AbsX(quoteAssetReserveDelta))
	}
	baseAssetReserve := utils.DivX(utils.MulX(amm.SqrtK.BigInt(), amm.SqrtK.BigInt()), quoteAssetReserve)
	return &AssetReserve{
		Base:  baseAssetReserve,
		Quote: quoteAssetReserve,
	}
}

// CalculateSpreadReserves shifts the curve by the market's current long and
// short spreads. Returns bid reserves then ask reserves.
func CalculateSpreadReserves(amm *drift.Amm) (*AssetReserve, *AssetReserve) {
	askReserves := calculateSpreadReserve(int64(amm.LongSpread), amm)
	bidReserves := calculateSpreadReserve(-int64(amm.ShortSpread), amm)
	return bidReserves, askReserves
}

func CalculateBidAskPrice(amm *drift.Amm) (*big.Int, *big.Int) {
	bidReserves, askReserves := CalculateSpreadReserves(amm)

	askPrice := CalculatePrice(
		askReserves.Base,
		askReserves.Quote,
		amm.PegMultiplier.BigInt(),
	)
	askPrice = utils.Max(utils.BN(1), askPrice)
	bidPrice := CalculatePrice(
		bidReserves.Base,
		bidReserves.Quote,
		amm.PegMultiplier.BigInt(),
	)
	bidPrice = utils.Max(utils.BN(1), bidPrice)
	return bidPrice, askPrice
}

func CalculateQuoteAssetAmountSwapped(
	quoteAssetReserves *big.Int,
	pegMultiplier *big.Int,
	swapDirection drift.SwapDirection,
) *big.Int {
	if swapDirection == drift.SwapDirection_Remove {
		quoteAssetReserves = utils.AddX(quoteAssetReserves, utils.BN(1))
	}

	quoteAssetAmount := utils.DivX(utils.MulX(quoteAssetReserves, pegMultiplier), constants.AMM_TIMES_PEG_TO_QUOTE_PRECISION_RATIO)

	if swapDirection == drift.SwapDirection_Remove {
		quoteAssetAmount = utils.AddX(quoteAssetAmount, utils.BN(1))
	}

	return quoteAssetAmount
}
