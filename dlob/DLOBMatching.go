package dlob

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/math"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

type exhaustedSide int

const (
	exhaustedSideNone exhaustedSide = iota
	exhaustedSideAsk
	exhaustedSideBid
	exhaustedSideBoth
)

func (value exhaustedSide) String() string {
	switch value {
	case exhaustedSideAsk:
		return "ask"
	case exhaustedSideBid:
		return "bid"
	case exhaustedSideBoth:
		return "both"
	default:
		return "none"
	}
}

// FindNodesToFill
/**
 * Crosses taking orders with resting orders, resting orders with each other
 * and both with the fallback (vAMM) quote, then appends expired orders.
 * Fill progress is written back into the book while matching, so a maker
 * is never handed out for more than it has left.
 *
 * @param fallbackBid vAMM bid, nil when there is none
 * @param fallbackAsk vAMM ask, nil when there is none
 * @param ts unix timestamp used for expiry
 */
func (p *DLOB) FindNodesToFill(
	marketIndex uint16,
	fallbackBid *big.Int,
	fallbackAsk *big.Int,
	slot uint64,
	ts int64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	stateAccount *drift.State,
	marketAccount *types2.MarketAccount,
) []*types.NodeToFill {
	if math.FillPaused(stateAccount, marketAccount) {
		return []*types.NodeToFill{}
	}

	isAmmPaused := math.AmmPaused(stateAccount, marketAccount)

	minAuctionDuration := 0
	if marketType == drift.MarketType_Perp {
		minAuctionDuration = int(stateAccount.MinPerpAuctionDuration)
	}

	makerRebateNumerator, makerRebateDenominator := p.GetMakerRebate(marketType, stateAccount, marketAccount)

	takingOrderNodesToFill := p.FindTakingNodesToFill(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		isAmmPaused,
		minAuctionDuration,
		fallbackAsk,
		fallbackBid,
	)

	restingLimitOrderNodesToFill := p.FindRestingLimitOrderNodesToFill(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		isAmmPaused,
		minAuctionDuration,
		makerRebateNumerator,
		makerRebateDenominator,
		fallbackAsk,
		fallbackBid,
	)

	expiredNodesToFill := p.FindExpiredNodesToFill(
		marketIndex,
		ts,
		marketType,
	)

	return append(
		p.MergeNodesToFill(takingOrderNodesToFill, restingLimitOrderNodesToFill),
		expiredNodesToFill...,
	)
}

// GetMakerRebate returns the tier 0 maker rebate, scaled by the market's fee
// adjustment (a percentage) for perps.
func (p *DLOB) GetMakerRebate(
	marketType drift.MarketType,
	stateAccount *drift.State,
	marketAccount *types2.MarketAccount,
) (int64, int64) {
	var makerRebateNumerator int64
	var makerRebateDenominator int64
	if marketType == drift.MarketType_Perp {
		makerRebateNumerator = int64(stateAccount.PerpFeeStructure.FeeTiers[0].MakerRebateNumerator)
		makerRebateDenominator = int64(stateAccount.PerpFeeStructure.FeeTiers[0].MakerRebateDenominator)
	} else {
		makerRebateNumerator = int64(stateAccount.SpotFeeStructure.FeeTiers[0].MakerRebateNumerator)
		makerRebateDenominator = int64(stateAccount.SpotFeeStructure.FeeTiers[0].MakerRebateDenominator)
	}

	var feeAdjustment int64
	if marketAccount != nil && marketAccount.PerpMarketAccount != nil {
		feeAdjustment = int64(marketAccount.PerpMarketAccount.FeeAdjustment)
	}
	if feeAdjustment != 0 {
		makerRebateNumerator += (makerRebateNumerator * feeAdjustment) / 100
	}
	return makerRebateNumerator, makerRebateDenominator
}

// MergeNodesToFill folds entries for the same taker into one, keeping the
// order in which takers first appear.
func (p *DLOB) MergeNodesToFill(
	nodesToFillArrays ...[]*types.NodeToFill,
) []*types.NodeToFill {
	var merged []*types.NodeToFill
	index := make(map[string]int)

	for _, nodesToFill := range nodesToFillArrays {
		for _, nodeToFill := range nodesToFill {
			nodeSignature := GetOrderSignature(nodeToFill.Node.GetOrder().OrderId, nodeToFill.Node.GetUserAccount())
			idx, exists := index[nodeSignature]
			if !exists {
				idx = len(merged)
				index[nodeSignature] = idx
				merged = append(merged, &types.NodeToFill{
					Node:       nodeToFill.Node,
					MakerNodes: []types.IDLOBNode{},
				})
			}
			if len(nodeToFill.MakerNodes) > 0 {
				merged[idx].MakerNodes = append(merged[idx].MakerNodes, nodeToFill.MakerNodes...)
			}
		}
	}
	return merged
}

func (p *DLOB) FindRestingLimitOrderNodesToFill(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	isAmmPaused bool,
	minAuctionDuration int,
	makerRebateNumerator int64,
	makerRebateDenominator int64,
	fallbackAsk *big.Int,
	fallbackBid *big.Int,
) []*types.NodeToFill {
	nodesToFill := p.FindCrossingRestingLimitOrders(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
	)

	withRebateBuffer := func(fallbackPrice *big.Int) *big.Int {
		if makerRebateDenominator == 0 {
			return fallbackPrice
		}
		return utils.SubX(
			fallbackPrice,
			utils.DivX(
				utils.MulX(fallbackPrice, utils.BN(makerRebateNumerator)),
				utils.BN(makerRebateDenominator),
			),
		)
	}

	if fallbackBid != nil && !isAmmPaused {
		fallbackBidWithBuffer := withRebateBuffer(fallbackBid)
		asksCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil),
			func(askPrice *big.Int) bool {
				return askPrice != nil && askPrice.Cmp(fallbackBidWithBuffer) <= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, asksCrossingFallback...)
	}

	if fallbackAsk != nil && !isAmmPaused {
		fallbackAskWithBuffer := withRebateBuffer(fallbackAsk)
		bidsCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil),
			func(bidPrice *big.Int) bool {
				return bidPrice != nil && bidPrice.Cmp(fallbackAskWithBuffer) >= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, bidsCrossingFallback...)
	}

	return nodesToFill
}

func (p *DLOB) FindTakingNodesToFill(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	isAmmPaused bool,
	minAuctionDuration int,
	fallbackAsk *big.Int,
	fallbackBid *big.Int,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	takingAsksCrossingBids := p.FindTakingNodesCrossingMakerNodes(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData),
		p.GetRestingLimitBids,
		func(takerPrice *big.Int, makerPrice *big.Int) bool {
			if makerPrice == nil {
				return false
			}
			if marketType == drift.MarketType_Spot {
				if takerPrice == nil {
					return false
				}
				if fallbackBid != nil && makerPrice.Cmp(fallbackBid) < 0 {
					return false
				}
			}
			return takerPrice == nil || takerPrice.Cmp(makerPrice) <= 0
		},
	)
	nodesToFill = append(nodesToFill, takingAsksCrossingBids...)

	if fallbackBid != nil && !isAmmPaused {
		takingAsksCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData),
			func(takerPrice *big.Int) bool {
				return takerPrice == nil || takerPrice.Cmp(fallbackBid) <= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, takingAsksCrossingFallback...)
	}

	takingBidsCrossingAsks := p.FindTakingNodesCrossingMakerNodes(
		marketIndex,
		slot,
		marketType,
		oraclePriceData,
		p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData),
		p.GetRestingLimitAsks,
		func(takerPrice *big.Int, makerPrice *big.Int) bool {
			if makerPrice == nil {
				return false
			}
			if marketType == drift.MarketType_Spot {
				if takerPrice == nil {
					return false
				}
				if fallbackAsk != nil && makerPrice.Cmp(fallbackAsk) > 0 {
					return false
				}
			}
			return takerPrice == nil || takerPrice.Cmp(makerPrice) >= 0
		},
	)
	nodesToFill = append(nodesToFill, takingBidsCrossingAsks...)

	if fallbackAsk != nil && !isAmmPaused {
		takingBidsCrossingFallback := p.FindNodesCrossingFallbackLiquidity(
			marketType,
			slot,
			oraclePriceData,
			p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData),
			func(takerPrice *big.Int) bool {
				return takerPrice == nil || takerPrice.Cmp(fallbackAsk) >= 0
			},
			minAuctionDuration,
		)
		nodesToFill = append(nodesToFill, takingBidsCrossingFallback...)
	}

	return nodesToFill
}

type MakerDLOBNodeGeneratorFn func(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int]

// FindTakingNodesCrossingMakerNodes walks takers oldest first, each against a
// fresh maker generator, best price first. Makers are sorted by price, so the
// first maker that does not cross ends the walk for that taker.
func (p *DLOB) FindTakingNodesCrossingMakerNodes(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	takerNodeGenerator *common.Generator[types.IDLOBNode, int],
	makerNodeGeneratorFn MakerDLOBNodeGeneratorFn,
	doesCross func(*big.Int, *big.Int) bool,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	takerNodeGenerator.Each(func(takerNode types.IDLOBNode, key int) bool {
		makerNodeGenerator := makerNodeGeneratorFn(marketIndex, slot, marketType, oraclePriceData, nil)

		makerNodeGenerator.Each(func(makerNode types.IDLOBNode, key int) bool {
			if p.isSameAuthority(takerNode, makerNode) {
				return false
			}

			makerPrice := makerNode.GetPrice(oraclePriceData, slot)
			takerPrice := takerNode.GetPrice(oraclePriceData, slot)
			if !doesCross(takerPrice, makerPrice) {
				return true
			}

			makerOrder := makerNode.GetOrder()
			takerOrder := takerNode.GetOrder()

			if makerOrder.PostOnly && takerOrder.PostOnly {
				// skip the maker or give up on the taker
				return !p.coinFlip()
			}

			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       takerNode,
				MakerNodes: []types.IDLOBNode{makerNode},
			})

			_, newTakerOrder := p.applyFill(makerNode, takerNode, slot)
			return newTakerOrder.BaseAssetAmountFilled >= newTakerOrder.BaseAssetAmount
		})
		return false
	})

	return nodesToFill
}

// applyFill books min(remaining) against both nodes and returns the updated
// orders.
func (p *DLOB) applyFill(
	first types.IDLOBNode,
	second types.IDLOBNode,
	slot uint64,
) (drift.Order, drift.Order) {
	firstOrder := *first.GetOrder()
	secondOrder := *second.GetOrder()

	baseFilled := min(
		math.RemainingBaseAssetAmount(&firstOrder),
		math.RemainingBaseAssetAmount(&secondOrder),
	)

	firstOrder.BaseAssetAmountFilled += baseFilled
	if nodeList := p.getListForNode(first, slot); nodeList != nil {
		nodeList.Update(&firstOrder, first.GetUserAccount())
	}

	secondOrder.BaseAssetAmountFilled += baseFilled
	if nodeList := p.getListForNode(second, slot); nodeList != nil {
		nodeList.Update(&secondOrder, second.GetUserAccount())
	}
	return firstOrder, secondOrder
}

// isSameAuthority compares owners through the user map when one is set, so
// sub accounts of one wallet never trade with each other.
func (p *DLOB) isSameAuthority(a types.IDLOBNode, b types.IDLOBNode) bool {
	if a.GetUserAccount() == b.GetUserAccount() {
		return true
	}
	if p.userMap == nil {
		return false
	}
	authorityA := p.userMap.GetUserAuthority(a.GetUserAccount())
	authorityB := p.userMap.GetUserAuthority(b.GetUserAccount())
	return !authorityA.IsZero() && authorityA.Equals(authorityB)
}

func (p *DLOB) FindNodesCrossingFallbackLiquidity(
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	nodeGenerator *common.Generator[types.IDLOBNode, int],
	doesCross func(*big.Int) bool,
	minAuctionDuration int,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill

	nodeGenerator.Each(func(node types.IDLOBNode, key int) bool {
		order := node.GetOrder()
		if marketType == drift.MarketType_Spot && order.PostOnly {
			return false
		}

		crosses := doesCross(node.GetPrice(oraclePriceData, slot))

		// spot has no auction gate
		fallbackAvailable := marketType == drift.MarketType_Spot ||
			math.IsFallbackAvailableLiquiditySource(order, minAuctionDuration, slot)

		if crosses && fallbackAvailable {
			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       node,
				MakerNodes: []types.IDLOBNode{},
			})
		}
		return false
	})
	return nodesToFill
}

// FindCrossingRestingLimitOrders walks the best bid and best ask together and
// only advances the side whose order ran out.
func (p *DLOB) FindCrossingRestingLimitOrders(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) []*types.NodeToFill {
	nodesToFill := []*types.NodeToFill{}

	askGenerator := p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil)
	bidGenerator := p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil)
	defer askGenerator.Cancel()
	defer bidGenerator.Cancel()

	askNode, _, askDone := askGenerator.Next()
	bidNode, _, bidDone := bidGenerator.Next()

	for !askDone && !bidDone {
		bidPrice := bidNode.GetPrice(oraclePriceData, slot)
		askPrice := askNode.GetPrice(oraclePriceData, slot)
		if bidPrice == nil || askPrice == nil || bidPrice.Cmp(askPrice) < 0 {
			break
		}

		bidOrder := bidNode.GetOrder()
		askOrder := askNode.GetOrder()

		var exhausted exhaustedSide
		if p.isSameAuthority(bidNode, askNode) {
			// keep the senior order, retry with the next one on the other side
			if bidOrder.Slot+uint64(bidOrder.AuctionDuration) < askOrder.Slot+uint64(askOrder.AuctionDuration) {
				exhausted = exhaustedSideAsk
			} else {
				exhausted = exhaustedSideBid
			}
		} else if bidOrder.PostOnly && askOrder.PostOnly {
			exhausted = utils.TT(p.coinFlip(), exhaustedSideAsk, exhaustedSideBid)
		} else {
			takerNode, makerNode := p.DetermineMakerAndTaker(askNode, bidNode)

			newAskOrder, newBidOrder := p.applyFill(askNode, bidNode, slot)

			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       takerNode,
				MakerNodes: []types.IDLOBNode{makerNode},
			})

			askFilled := newAskOrder.BaseAssetAmountFilled >= newAskOrder.BaseAssetAmount
			bidFilled := newBidOrder.BaseAssetAmountFilled >= newBidOrder.BaseAssetAmount
			if askFilled && bidFilled {
				exhausted = exhaustedSideBoth
			} else if askFilled {
				exhausted = exhaustedSideAsk
			} else if bidFilled {
				exhausted = exhaustedSideBid
			}
		}

		switch exhausted {
		case exhaustedSideAsk:
			askNode, _, askDone = askGenerator.Next()
		case exhaustedSideBid:
			bidNode, _, bidDone = bidGenerator.Next()
		case exhaustedSideBoth:
			askNode, _, askDone = askGenerator.Next()
			bidNode, _, bidDone = bidGenerator.Next()
		default:
			logger.Errorw(
				"unexpected exhausted side, aborting resting limit crossing",
				"exhaustedSide", exhausted.String(),
				"marketIndex", marketIndex,
				"marketType", marketType.String(),
				"ask", GetOrderSignature(askOrder.OrderId, askNode.GetUserAccount()),
				"bid", GetOrderSignature(bidOrder.OrderId, bidNode.GetUserAccount()),
			)
			return nodesToFill
		}
	}
	return nodesToFill
}

// DetermineMakerAndTaker returns (taker, maker). A post only order is always
// the maker; otherwise the order whose auction ended first is.
func (p *DLOB) DetermineMakerAndTaker(
	askNode types.IDLOBNode,
	bidNode types.IDLOBNode,
) (types.IDLOBNode, types.IDLOBNode) {
	askOrder := askNode.GetOrder()
	bidOrder := bidNode.GetOrder()
	askSlot := askOrder.Slot + uint64(askOrder.AuctionDuration)
	bidSlot := bidOrder.Slot + uint64(bidOrder.AuctionDuration)

	if bidOrder.PostOnly && askOrder.PostOnly {
		return nil, nil
	} else if bidOrder.PostOnly {
		return askNode, bidNode
	} else if askOrder.PostOnly {
		return bidNode, askNode
	} else if askSlot <= bidSlot {
		return bidNode, askNode
	} else {
		return askNode, bidNode
	}
}

func (p *DLOB) FindExpiredNodesToFill(
	marketIndex uint16,
	ts int64,
	marketType drift.MarketType,
) []*types.NodeToFill {
	nodeLists, exists := p.OrderLists[marketType][marketIndex]
	if !exists {
		return []*types.NodeToFill{}
	}

	var nodesToFill []*types.NodeToFill
	for _, side := range []types.DLOBNodeSubType{types.NodeSubTypeBid, types.NodeSubTypeAsk} {
		for _, nodeType := range []types.DLOBNodeType{
			types.NodeTypeTakingLimit,
			types.NodeTypeRestingLimit,
			types.NodeTypeFloatingLimit,
			types.NodeTypeMarket,
		} {
			nodeLists[nodeType][side].GetGenerator().Each(func(node types.IDLOBNode, key int) bool {
				if math.IsOrderExpired(node.GetOrder(), ts, true) {
					nodesToFill = append(nodesToFill, &types.NodeToFill{
						Node:       node,
						MakerNodes: []types.IDLOBNode{},
					})
				}
				return false
			})
		}
	}
	return nodesToFill
}

// FindJitAuctionNodesToFill returns the taking orders still inside their
// auction, for makers that want to fill them just in time.
func (p *DLOB) FindJitAuctionNodesToFill(
	marketIndex uint16,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	marketType drift.MarketType,
) []*types.NodeToFill {
	var nodesToFill []*types.NodeToFill
	inAuction := func(node types.IDLOBNode) bool {
		return !math.IsAuctionComplete(node.GetOrder(), slot)
	}

	for _, generator := range []*common.Generator[types.IDLOBNode, int]{
		p.GetTakingBids(marketIndex, marketType, slot, oraclePriceData, inAuction),
		p.GetTakingAsks(marketIndex, marketType, slot, oraclePriceData, inAuction),
	} {
		generator.Each(func(node types.IDLOBNode, key int) bool {
			nodesToFill = append(nodesToFill, &types.NodeToFill{
				Node:       node,
				MakerNodes: []types.IDLOBNode{},
			})
			return false
		})
	}
	return nodesToFill
}

// FindNodesToTrigger
/**
 * Trigger lists are sorted by trigger price, so each walk stops at the first
 * order the oracle has not reached. Orders still in their auction are skipped.
 */
func (p *DLOB) FindNodesToTrigger(
	marketIndex uint16,
	slot uint64,
	oraclePrice *big.Int,
	marketType drift.MarketType,
	stateAccount *drift.State,
) []*types.NodeToTrigger {
	nodesToTrigger := []*types.NodeToTrigger{}
	if math.ExchangePaused(stateAccount) {
		return nodesToTrigger
	}

	marketNodeLists, exists := p.OrderLists[marketType][marketIndex]
	if !exists {
		return nodesToTrigger
	}

	walk := func(nodeList *NodeList, reached func(triggerPrice *big.Int) bool) {
		nodeList.GetGenerator().Each(func(node types.IDLOBNode, key int) bool {
			order := node.GetOrder()
			if !reached(utils.BN(order.TriggerPrice)) {
				return true
			}
			if !math.IsAuctionComplete(order, slot) {
				return false
			}
			nodesToTrigger = append(nodesToTrigger, &types.NodeToTrigger{Node: node})
			return false
		})
	}

	walk(marketNodeLists[types.NodeTypeTrigger][types.NodeSubTypeAbove], func(triggerPrice *big.Int) bool {
		return oraclePrice.Cmp(triggerPrice) > 0
	})
	walk(marketNodeLists[types.NodeTypeTrigger][types.NodeSubTypeBelow], func(triggerPrice *big.Int) bool {
		return oraclePrice.Cmp(triggerPrice) < 0
	})

	return nodesToTrigger
}
