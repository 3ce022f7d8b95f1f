package dlob

import (
	"math/big"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/math"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

// GetL2GeneratorFromDLOBNodes
/**
 * Get an {@link Generator<L2Level>} generator from a {@link Generator<DLOBNode>}
 * @param dlobNodes e.g. {@link DLOB#GetRestingLimitAsks} or {@link DLOB#GetRestingLimitBids}
 * @param oraclePriceData
 * @param slot
 */
func GetL2GeneratorFromDLOBNodes(
	dlobNodes *common.Generator[types.IDLOBNode, int],
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
) *common.Generator[*types.L2Level, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
		dlobNodes.Each(func(dlobNode types.IDLOBNode, key int) bool {
			price := dlobNode.GetPrice(oraclePriceData, slot)
			if price == nil {
				return false
			}
			size := utils.BN(math.RemainingBaseAssetAmount(dlobNode.GetOrder()))
			return yield(&types.L2Level{
				Price: price,
				Size:  size,
				Sources: map[types.LiquiditySource]*big.Int{
					types.LiquiditySourceDlob: utils.IntX(size),
				},
			}, key)
		})
	})
}

type GeneratorL2LevelItem struct {
	Next      *types.L2Level
	Done      bool
	Generator *common.Generator[*types.L2Level, int]
}

// MergeL2LevelGenerators merges sorted level generators. compare(a, b) is
// true when a goes before b.
func MergeL2LevelGenerators(
	l2LevelGenerators []*common.Generator[*types.L2Level, int],
	compare func(*types.L2Level, *types.L2Level) bool,
) *common.Generator[*types.L2Level, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
		var generators []*GeneratorL2LevelItem
		for _, generator := range l2LevelGenerators {
			nextItem, _, done := generator.Next()
			generators = append(generators, &GeneratorL2LevelItem{
				Next:      nextItem,
				Done:      done,
				Generator: generator,
			})
		}
		defer func() {
			for _, generator := range generators {
				generator.Generator.Cancel()
			}
		}()

		idx := 0
		for {
			var best *GeneratorL2LevelItem
			for _, item := range generators {
				if item.Done {
					continue
				}
				if best == nil || compare(item.Next, best.Next) {
					best = item
				}
			}
			if best == nil {
				return
			}
			level := best.Next
			best.Next, _, best.Done = best.Generator.Next()
			if yield(level, idx) {
				return
			}
			idx++
		}
	})
}

// CreateL2Levels coalesces consecutive levels at the same price and stops
// after depth distinct prices. depth <= 0 means no limit.
func CreateL2Levels(
	generator *common.Generator[*types.L2Level, int],
	depth int,
) []*types.L2Level {
	levels := []*types.L2Level{}
	generator.Each(func(level *types.L2Level, key int) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price.Cmp(level.Price) == 0 {
			addToLevel(levels[len(levels)-1], level)
			return false
		}
		if depth > 0 && len(levels) == depth {
			return true
		}
		levels = append(levels, CloneL2Level(level))
		return false
	})
	return levels
}

func addToLevel(target *types.L2Level, level *types.L2Level) {
	target.Size = utils.AddX(target.Size, level.Size)
	for source, size := range level.Sources {
		if existing, exists := target.Sources[source]; exists {
			target.Sources[source] = utils.AddX(existing, size)
		} else {
			target.Sources[source] = utils.IntX(size)
		}
	}
}

// GetVammL2Generator
/**
 * Walks the constant product curve outward from the spread adjusted reserves,
 * numOrders levels per side. The first levels are sized by the given top of
 * book quote amounts, the rest split the remaining open interest evenly and
 * are rounded down to the order step size.
 */
func GetVammL2Generator(
	marketAccount *drift.PerpMarket,
	numOrders int,
	topOfBookQuoteAmounts []*big.Int,
) *types.L2OrderBookGenerator {
	amm := &marketAccount.Amm
	numBaseOrders := numOrders
	if len(topOfBookQuoteAmounts) > 0 {
		if len(topOfBookQuoteAmounts) >= numOrders {
			topOfBookQuoteAmounts = topOfBookQuoteAmounts[:max(numOrders-1, 0)]
		}
		numBaseOrders = numOrders - len(topOfBookQuoteAmounts)
	}

	emptyGenerator := func() *common.Generator[*types.L2Level, int] {
		return common.EmptyGenerator[*types.L2Level, int]()
	}
	if numOrders <= 0 || numBaseOrders <= 0 {
		return &types.L2OrderBookGenerator{GetL2Asks: emptyGenerator, GetL2Bids: emptyGenerator}
	}

	stepSize := utils.BN(amm.OrderStepSize)
	openBids, openAsks := math.CalculateMarketOpenBidAsk(
		amm.BaseAssetReserve.BigInt(),
		amm.MinBaseAssetReserve.BigInt(),
		amm.MaxBaseAssetReserve.BigInt(),
		stepSize,
	)

	minOrderSize := utils.BN(amm.MinOrderSize * 2)
	if openBids.Cmp(minOrderSize) < 0 {
		openBids = utils.BN(0)
	}
	openAsks = utils.AbsX(openAsks)
	if openAsks.Cmp(minOrderSize) < 0 {
		openAsks = utils.BN(0)
	}

	bidReserves, askReserves := math.CalculateSpreadReserves(amm)

	return &types.L2OrderBookGenerator{
		GetL2Bids: func() *common.Generator[*types.L2Level, int] {
			return vammSideGenerator(amm, bidReserves, openBids, numOrders, numBaseOrders, topOfBookQuoteAmounts, stepSize, drift.PositionDirection_Long)
		},
		GetL2Asks: func() *common.Generator[*types.L2Level, int] {
			return vammSideGenerator(amm, askReserves, openAsks, numOrders, numBaseOrders, topOfBookQuoteAmounts, stepSize, drift.PositionDirection_Short)
		},
	}
}

// vammSideGenerator yields levels for one side. Bids sell base into the curve,
// asks buy base out of it.
func vammSideGenerator(
	amm *drift.Amm,
	reserves *math.AssetReserve,
	openLiquidity *big.Int,
	numOrders int,
	numBaseOrders int,
	topOfBookQuoteAmounts []*big.Int,
	stepSize *big.Int,
	direction drift.PositionDirection,
) *common.Generator[*types.L2Level, int] {
	return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
		// the taker trades against this side in the opposite direction
		takerDirection := utils.TT(direction == drift.PositionDirection_Long, drift.PositionDirection_Short, drift.PositionDirection_Long)
		baseDirection := math.GetSwapDirection(drift.AssetType_Base, takerDirection)
		quoteDirection := math.GetSwapDirection(drift.AssetType_Quote, takerDirection)

		sideAmm := &drift.Amm{
			BaseAssetReserve:  utils.Uint128(reserves.Base),
			QuoteAssetReserve: utils.Uint128(reserves.Quote),
			SqrtK:             amm.SqrtK,
			PegMultiplier:     amm.PegMultiplier,
		}
		pegMultiplier := amm.PegMultiplier.BigInt()

		topOfBookSize := utils.BN(0)
		baseSize := math.StandardizeBaseAssetAmount(utils.DivX(openLiquidity, utils.BN(numBaseOrders)), stepSize)

		swapBase := func(baseSwapped *big.Int) (*big.Int, *big.Int, *big.Int) {
			afterSwapQuoteReserves, afterSwapBaseReserves := math.CalculateAmmReservesAfterSwap(
				sideAmm,
				drift.AssetType_Base,
				baseSwapped,
				baseDirection,
			)
			quoteSwapped := math.CalculateQuoteAssetAmountSwapped(
				utils.AbsX(utils.SubX(sideAmm.QuoteAssetReserve.BigInt(), afterSwapQuoteReserves)),
				pegMultiplier,
				baseDirection,
			)
			return quoteSwapped, afterSwapQuoteReserves, afterSwapBaseReserves
		}

		for count := 0; count < numOrders; count++ {
			var quoteSwapped, baseSwapped, afterSwapQuoteReserves, afterSwapBaseReserves *big.Int

			if count < len(topOfBookQuoteAmounts) {
				remainingBaseLiquidity := utils.SubX(openLiquidity, topOfBookSize)
				quoteSwapped = topOfBookQuoteAmounts[count]
				afterSwapQuoteReserves, afterSwapBaseReserves = math.CalculateAmmReservesAfterSwap(
					sideAmm,
					drift.AssetType_Quote,
					quoteSwapped,
					quoteDirection,
				)
				baseSwapped = utils.AbsX(utils.SubX(sideAmm.BaseAssetReserve.BigInt(), afterSwapBaseReserves))
				if remainingBaseLiquidity.Cmp(baseSwapped) < 0 {
					baseSwapped = remainingBaseLiquidity
					if baseSwapped.Sign() <= 0 {
						return
					}
					quoteSwapped, afterSwapQuoteReserves, afterSwapBaseReserves = swapBase(baseSwapped)
				}
				topOfBookSize = utils.AddX(topOfBookSize, baseSwapped)
				baseSize = math.StandardizeBaseAssetAmount(
					utils.DivX(utils.SubX(openLiquidity, topOfBookSize), utils.BN(numBaseOrders)),
					stepSize,
				)
			} else {
				baseSwapped = baseSize
				quoteSwapped, afterSwapQuoteReserves, afterSwapBaseReserves = swapBase(baseSwapped)
			}

			if baseSwapped.Sign() <= 0 || afterSwapBaseReserves.Sign() <= 0 || afterSwapQuoteReserves.Sign() <= 0 {
				return
			}

			price := utils.DivX(utils.MulX(quoteSwapped, constants.BASE_PRECISION), baseSwapped)

			sideAmm.BaseAssetReserve = utils.Uint128(afterSwapBaseReserves)
			sideAmm.QuoteAssetReserve = utils.Uint128(afterSwapQuoteReserves)

			if yield(&types.L2Level{
				Price: price,
				Size:  baseSwapped,
				Sources: map[types.LiquiditySource]*big.Int{
					types.LiquiditySourceVamm: utils.IntX(baseSwapped),
				},
			}, count) {
				return
			}
		}
	})
}

// GetStaticL2Generator serves fixed levels, e.g. an external venue's book or
// indicative quotes, tagged with source. Levels must already be sorted: asks
// ascending, bids descending.
func GetStaticL2Generator(
	asks []*types.L2Level,
	bids []*types.L2Level,
	source types.LiquiditySource,
) *types.L2OrderBookGenerator {
	fromLevels := func(levels []*types.L2Level) func() *common.Generator[*types.L2Level, int] {
		return func() *common.Generator[*types.L2Level, int] {
			return common.NewGenerator(func(yield common.YieldFn[*types.L2Level, int]) {
				for idx, level := range levels {
					if yield(&types.L2Level{
						Price:   utils.IntX(level.Price),
						Size:    utils.IntX(level.Size),
						Sources: map[types.LiquiditySource]*big.Int{source: utils.IntX(level.Size)},
					}, idx) {
						return
					}
				}
			})
		}
	}
	return &types.L2OrderBookGenerator{
		GetL2Asks: fromLevels(asks),
		GetL2Bids: fromLevels(bids),
	}
}

func GroupL2(
	l2 *types.L2OrderBook,
	grouping *big.Int,
	depth int,
) *types.L2OrderBook {
	return &types.L2OrderBook{
		Bids: GroupL2Levels(l2.Bids, grouping, drift.PositionDirection_Long, depth),
		Asks: GroupL2Levels(l2.Asks, grouping, drift.PositionDirection_Short, depth),
		Slot: l2.Slot,
	}
}

func CloneL2Level(level *types.L2Level) *types.L2Level {
	if level == nil {
		return nil
	}
	sources := make(map[types.LiquiditySource]*big.Int, len(level.Sources))
	for source, size := range level.Sources {
		sources[source] = utils.IntX(size)
	}
	return &types.L2Level{
		Price:   utils.IntX(level.Price),
		Size:    utils.IntX(level.Size),
		Sources: sources,
	}
}

// GroupL2Levels buckets prices to multiples of grouping, rounding bids down and
// asks up. The input levels are not modified.
func GroupL2Levels(
	levels []*types.L2Level,
	grouping *big.Int,
	direction drift.PositionDirection,
	depth int,
) []*types.L2Level {
	groupedLevels := []*types.L2Level{}
	for _, level := range levels {
		price := math.StandardizePrice(level.Price, grouping, direction)
		if len(groupedLevels) > 0 && groupedLevels[len(groupedLevels)-1].Price.Cmp(price) == 0 {
			addToLevel(groupedLevels[len(groupedLevels)-1], level)
			continue
		}
		if depth > 0 && len(groupedLevels) == depth {
			break
		}
		groupedLevel := CloneL2Level(level)
		groupedLevel.Price = utils.IntX(price)
		groupedLevels = append(groupedLevels, groupedLevel)
	}
	return groupedLevels
}

// mergeByPrice folds adjacent levels with equal prices. The input is sorted.
func mergeByPrice(bidsOrAsks []*types.L2Level) []*types.L2Level {
	merged := []*types.L2Level{}
	for _, level := range bidsOrAsks {
		if len(merged) > 0 && merged[len(merged)-1].Price.Cmp(level.Price) == 0 {
			addToLevel(merged[len(merged)-1], level)
			continue
		}
		merged = append(merged, CloneL2Level(level))
	}
	return merged
}

// UncrossL2
/**
 * Moves crossing levels to a price on their own side of the reference price
 * oracle + (markTwap5Min - oracleTwap5Min). Only prices move: every level's
 * size lands in some output level. Levels at prices listed in userBids or
 * userAsks belong to the caller and are never moved.
 */
func UncrossL2(
	bids []*types.L2Level,
	asks []*types.L2Level,
	oraclePrice *big.Int,
	oracleTwap5Min *big.Int,
	markTwap5Min *big.Int,
	grouping *big.Int,
	userBids map[string]bool,
	userAsks map[string]bool,
) ([]*types.L2Level, []*types.L2Level) {
	if len(bids) == 0 || len(asks) == 0 {
		return bids, asks
	}

	if bids[0].Price.Cmp(asks[0].Price) < 0 {
		return bids, asks
	}

	var newBids []*types.L2Level
	var newAsks []*types.L2Level

	updateLevels := func(newPrice *big.Int, oldLevel *types.L2Level, levels *[]*types.L2Level) {
		if len(*levels) > 0 && (*levels)[len(*levels)-1].Price.Cmp(newPrice) == 0 {
			addToLevel((*levels)[len(*levels)-1], oldLevel)
			return
		}
		level := CloneL2Level(oldLevel)
		level.Price = utils.IntX(newPrice)
		*levels = append(*levels, level)
	}

	// best estimate of the market premium over the oracle
	referencePrice := utils.AddX(oraclePrice, utils.SubX(markTwap5Min, oracleTwap5Min))

	var maxBid *big.Int
	var minAsk *big.Int

	getPriceAndSetBound := func(newPrice *big.Int, direction drift.PositionDirection) *big.Int {
		if direction == drift.PositionDirection_Long {
			maxBid = utils.TTF(maxBid != nil, func() *big.Int { return utils.Min(maxBid, newPrice) }, func() *big.Int { return newPrice })
			return maxBid
		}
		minAsk = utils.TTF(minAsk != nil, func() *big.Int { return utils.Max(minAsk, newPrice) }, func() *big.Int { return newPrice })
		return minAsk
	}

	bidIndex := 0
	askIndex := 0
	for bidIndex < len(bids) || askIndex < len(asks) {
		var nextBid, nextAsk *types.L2Level
		if bidIndex < len(bids) {
			nextBid = CloneL2Level(bids[bidIndex])
		}
		if askIndex < len(asks) {
			nextAsk = CloneL2Level(asks[askIndex])
		}

		if nextBid == nil {
			if minAsk != nil && nextAsk.Price.Cmp(minAsk) <= 0 && !userAsks[nextAsk.Price.String()] {
				updateLevels(getPriceAndSetBound(nextAsk.Price, drift.PositionDirection_Short), nextAsk, &newAsks)
			} else {
				newAsks = append(newAsks, nextAsk)
			}
			askIndex++
			continue
		}

		if nextAsk == nil {
			if maxBid != nil && nextBid.Price.Cmp(maxBid) >= 0 && !userBids[nextBid.Price.String()] {
				updateLevels(getPriceAndSetBound(nextBid.Price, drift.PositionDirection_Long), nextBid, &newBids)
			} else {
				newBids = append(newBids, nextBid)
			}
			bidIndex++
			continue
		}

		if userBids[nextBid.Price.String()] {
			newBids = append(newBids, nextBid)
			bidIndex++
			continue
		}

		if userAsks[nextAsk.Price.String()] {
			newAsks = append(newAsks, nextAsk)
			askIndex++
			continue
		}

		if nextBid.Price.Cmp(nextAsk.Price) >= 0 {
			if nextBid.Price.Cmp(referencePrice) > 0 && nextAsk.Price.Cmp(referencePrice) > 0 {
				newBidPrice := getPriceAndSetBound(utils.SubX(nextAsk.Price, grouping), drift.PositionDirection_Long)
				updateLevels(newBidPrice, nextBid, &newBids)
				bidIndex++
			} else if nextAsk.Price.Cmp(referencePrice) < 0 && nextBid.Price.Cmp(referencePrice) < 0 {
				newAskPrice := getPriceAndSetBound(utils.AddX(nextBid.Price, grouping), drift.PositionDirection_Short)
				updateLevels(newAskPrice, nextAsk, &newAsks)
				askIndex++
			} else {
				newBidPrice := getPriceAndSetBound(utils.SubX(referencePrice, grouping), drift.PositionDirection_Long)
				newAskPrice := getPriceAndSetBound(utils.AddX(referencePrice, grouping), drift.PositionDirection_Short)
				updateLevels(newBidPrice, nextBid, &newBids)
				updateLevels(newAskPrice, nextAsk, &newAsks)
				bidIndex++
				askIndex++
			}
			continue
		}

		if minAsk != nil && nextAsk.Price.Cmp(minAsk) <= 0 {
			updateLevels(getPriceAndSetBound(nextAsk.Price, drift.PositionDirection_Short), nextAsk, &newAsks)
		} else {
			newAsks = append(newAsks, nextAsk)
		}
		askIndex++

		if maxBid != nil && nextBid.Price.Cmp(maxBid) >= 0 {
			updateLevels(getPriceAndSetBound(nextBid.Price, drift.PositionDirection_Long), nextBid, &newBids)
		} else {
			newBids = append(newBids, nextBid)
		}
		bidIndex++
	}

	slices.SortStableFunc(newBids, func(a *types.L2Level, b *types.L2Level) int {
		return b.Price.Cmp(a.Price)
	})
	slices.SortStableFunc(newAsks, func(a *types.L2Level, b *types.L2Level) int {
		return a.Price.Cmp(b.Price)
	})

	return mergeByPrice(newBids), mergeByPrice(newAsks)
}

// L2LevelsToDecimal converts levels to human units for display.
func L2LevelsToDecimal(levels []*types.L2Level) []*types.L2LevelDecimal {
	result := make([]*types.L2LevelDecimal, 0, len(levels))
	for _, level := range levels {
		sources := make(map[types.LiquiditySource]decimal.Decimal, len(level.Sources))
		for source, size := range level.Sources {
			sources[source] = decimal.NewFromBigInt(size, -constants.BASE_PRECISION_EXP)
		}
		result = append(result, &types.L2LevelDecimal{
			Price:   decimal.NewFromBigInt(level.Price, -constants.PRICE_PRECISION_EXP),
			Size:    decimal.NewFromBigInt(level.Size, -constants.BASE_PRECISION_EXP),
			Sources: sources,
		})
	}
	return result
}
