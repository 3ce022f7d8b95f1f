package dlob

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
	"github.com/drift-labs/protocol-v2-sub007/userMap"
	userMapTypes "github.com/drift-labs/protocol-v2-sub007/userMap/types"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

func insert(dlob *DLOB, order *drift.Order, user solana.PublicKey) {
	dlob.InsertOrder(order, user.String(), order.Slot, false)
}

func findNodesToFill(dlob *DLOB, fallbackBid *big.Int, fallbackAsk *big.Int, state *drift.State, market *types2.MarketAccount) []*types.NodeToFill {
	return dlob.FindNodesToFill(0, fallbackBid, fallbackAsk, testSlot, 0, drift.MarketType_Perp, testOracle(), state, market)
}

func TestMarketBuyFillsAcrossMakers(t *testing.T) {
	dlob := newTestDLOB()
	makerA, makerB, taker := newTestUser(), newTestUser(), newTestUser()
	insert(dlob, limitAsk(1, priceOf(101), baseOf(5), 1), makerA)
	insert(dlob, limitAsk(2, priceOf(102), baseOf(5), 2), makerB)
	insert(dlob, newOrder(3, drift.OrderType_Market, drift.PositionDirection_Long, 0, baseOf(8), 5), taker)

	nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
	require.Len(t, nodesToFill, 1, spew.Sdump(nodesToFill))

	nodeToFill := nodesToFill[0]
	assert.Equal(t, taker.String(), userOf(nodeToFill.Node))
	require.Len(t, nodeToFill.MakerNodes, 2)
	assert.Equal(t, makerA.String(), userOf(nodeToFill.MakerNodes[0]))
	assert.Equal(t, makerB.String(), userOf(nodeToFill.MakerNodes[1]))

	assert.Equal(t, baseOf(5), nodeToFill.MakerNodes[0].GetOrder().BaseAssetAmountFilled)
	assert.Equal(t, baseOf(3), nodeToFill.MakerNodes[1].GetOrder().BaseAssetAmountFilled)
	assert.Equal(t, baseOf(8), nodeToFill.Node.GetOrder().BaseAssetAmountFilled)
}

func TestNoSelfTrade(t *testing.T) {
	t.Run("same account", func(t *testing.T) {
		dlob := newTestDLOB()
		user := newTestUser()
		insert(dlob, limitAsk(1, priceOf(101), baseOf(5), 1), user)
		insert(dlob, newOrder(2, drift.OrderType_Market, drift.PositionDirection_Long, 0, baseOf(1), 5), user)

		assert.Empty(t, findNodesToFill(dlob, nil, nil, &drift.State{}, nil))
	})

	t.Run("same authority", func(t *testing.T) {
		dlob := newTestDLOB()
		authority := newTestUser()
		maker, taker := newTestUser(), newTestUser()
		users := userMap.CreateUserMap(userMapTypes.UserMapConfig{})
		users.AddPubkey(maker, &drift.User{Authority: authority}, 1)
		users.AddPubkey(taker, &drift.User{Authority: authority, SubAccountId: 1}, 1)
		dlob.SetUserMap(users)

		insert(dlob, limitAsk(1, priceOf(101), baseOf(5), 1), maker)
		insert(dlob, newOrder(2, drift.OrderType_Market, drift.PositionDirection_Long, 0, baseOf(1), 5), taker)
		insert(dlob, limitBid(3, priceOf(102), baseOf(1), 2), taker)

		assert.Empty(t, findNodesToFill(dlob, nil, nil, &drift.State{}, nil))
	})
}

func TestCrossingRestingLimitOrders(t *testing.T) {
	tests := []struct {
		name      string
		bid       *drift.Order
		ask       *drift.Order
		wantTaker uint32
		wantMaker uint32
	}{
		{
			name:      "older order is the maker",
			bid:       limitBid(1, priceOf(101), baseOf(1), 1),
			ask:       limitAsk(2, priceOf(100), baseOf(1), 2),
			wantTaker: 2,
			wantMaker: 1,
		},
		{
			name:      "post only ask is the maker",
			bid:       limitBid(1, priceOf(101), baseOf(1), 1),
			ask:       limitAsk(2, priceOf(100), baseOf(1), 2, postOnly()),
			wantTaker: 1,
			wantMaker: 2,
		},
		{
			name:      "post only bid is the maker",
			bid:       limitBid(1, priceOf(101), baseOf(1), 3, postOnly()),
			ask:       limitAsk(2, priceOf(100), baseOf(1), 2),
			wantTaker: 2,
			wantMaker: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dlob := newTestDLOB()
			insert(dlob, tt.bid, newTestUser())
			insert(dlob, tt.ask, newTestUser())

			nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
			require.Len(t, nodesToFill, 1, spew.Sdump(nodesToFill))
			assert.Equal(t, tt.wantTaker, nodesToFill[0].Node.GetOrder().OrderId)
			require.Len(t, nodesToFill[0].MakerNodes, 1)
			assert.Equal(t, tt.wantMaker, nodesToFill[0].MakerNodes[0].GetOrder().OrderId)
		})
	}
}

func TestPartialCrossAdvancesExhaustedSide(t *testing.T) {
	dlob := newTestDLOB()
	insert(dlob, limitBid(1, priceOf(102), baseOf(3), 1), newTestUser())
	insert(dlob, limitAsk(2, priceOf(100), baseOf(1), 2), newTestUser())
	insert(dlob, limitAsk(3, priceOf(101), baseOf(1), 3), newTestUser())
	insert(dlob, limitAsk(4, priceOf(103), baseOf(1), 4), newTestUser())

	nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
	assert.ElementsMatch(t, []uint32{2, 3}, orderIdsOfTakers(nodesToFill))

	bid, _ := dlob.GetOrder(1, solana.PublicKey{})
	assert.Nil(t, bid, "lookup by a foreign account")
	assert.Equal(t, priceOf(102), dlob.GetBestBid(0, testSlot, drift.MarketType_Perp, testOracle()).Uint64())
	assert.Equal(t, priceOf(103), dlob.GetBestAsk(0, testSlot, drift.MarketType_Perp, testOracle()).Uint64())
}

func orderIdsOfTakers(nodesToFill []*types.NodeToFill) []uint32 {
	ids := make([]uint32, 0, len(nodesToFill))
	for _, nodeToFill := range nodesToFill {
		ids = append(ids, nodeToFill.Node.GetOrder().OrderId)
	}
	return ids
}

func TestPostOnlyOrdersDoNotCross(t *testing.T) {
	dlob := newTestDLOB()
	insert(dlob, limitBid(1, priceOf(101), baseOf(1), 1, postOnly()), newTestUser())
	insert(dlob, limitAsk(2, priceOf(100), baseOf(1), 2, postOnly()), newTestUser())

	assert.Empty(t, findNodesToFill(dlob, nil, nil, &drift.State{}, nil))
}

// both books hold a post only pair at the top, with a plain order behind it
// on each side
func insertPostOnlyStandoff(dlob *DLOB) {
	insert(dlob, limitBid(1, priceOf(101), baseOf(1), 1, postOnly()), newTestUser())
	insert(dlob, limitBid(2, priceOf(100)+500_000, baseOf(1), 2), newTestUser())
	insert(dlob, limitAsk(3, priceOf(100), baseOf(1), 3, postOnly()), newTestUser())
	insert(dlob, limitAsk(4, priceOf(100)+200_000, baseOf(1), 4), newTestUser())
}

func TestPostOnlyStandoffCoinFlip(t *testing.T) {
	tests := []struct {
		name      string
		flip      bool
		wantTaker uint32
		wantMaker uint32
	}{
		{
			name:      "heads skips the post only ask",
			flip:      true,
			wantTaker: 4,
			wantMaker: 1,
		},
		{
			name:      "tails skips the post only bid",
			flip:      false,
			wantTaker: 2,
			wantMaker: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dlob := NewDLOB([]uint16{0}, []uint16{0})
			dlob.SetCoinFlip(func() bool { return tt.flip })
			insertPostOnlyStandoff(dlob)

			nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
			require.Len(t, nodesToFill, 1, spew.Sdump(nodesToFill))
			assert.Equal(t, tt.wantTaker, nodesToFill[0].Node.GetOrder().OrderId)
			require.Len(t, nodesToFill[0].MakerNodes, 1)
			assert.Equal(t, tt.wantMaker, nodesToFill[0].MakerNodes[0].GetOrder().OrderId)
		})
	}
}

func TestPostOnlyTakerCoinFlip(t *testing.T) {
	tests := []struct {
		name       string
		flip       bool
		wantMakers []uint32
	}{
		{
			name:       "heads skips the post only maker",
			flip:       true,
			wantMakers: []uint32{2},
		},
		{
			name: "tails gives up on the taker",
			flip: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dlob := NewDLOB([]uint16{0}, []uint16{0})
			dlob.SetCoinFlip(func() bool { return tt.flip })
			insert(dlob, limitAsk(1, priceOf(100), baseOf(1), 1, postOnly()), newTestUser())
			insert(dlob, limitAsk(2, priceOf(101), baseOf(1), 2), newTestUser())
			insert(dlob, newOrder(5, drift.OrderType_Market, drift.PositionDirection_Long, 0, baseOf(1), 5, postOnly()), newTestUser())

			nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
			var makers []uint32
			for _, nodeToFill := range nodesToFill {
				assert.Equal(t, uint32(5), nodeToFill.Node.GetOrder().OrderId)
				for _, makerNode := range nodeToFill.MakerNodes {
					makers = append(makers, makerNode.GetOrder().OrderId)
				}
			}
			assert.Equal(t, tt.wantMakers, makers, spew.Sdump(nodesToFill))
		})
	}
}

func TestPostOnlyStandoffDefaultCoinFlip(t *testing.T) {
	outcomes := map[uint32]int{}
	for trial := 0; trial < 200; trial++ {
		dlob := NewDLOB([]uint16{0}, []uint16{0})
		insertPostOnlyStandoff(dlob)

		nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
		require.Len(t, nodesToFill, 1)
		outcomes[nodesToFill[0].Node.GetOrder().OrderId]++
	}
	assert.Len(t, outcomes, 2, spew.Sdump(outcomes))
	assert.Positive(t, outcomes[2])
	assert.Positive(t, outcomes[4])
}

func TestFallbackLiquidity(t *testing.T) {
	newBook := func() *DLOB {
		dlob := newTestDLOB()
		insert(dlob, limitBid(1, priceOf(101), baseOf(1), 1), newTestUser())
		return dlob
	}
	fallbackAsk := big.NewInt(int64(priceOf(100)))

	nodesToFill := findNodesToFill(newBook(), nil, fallbackAsk, &drift.State{}, nil)
	require.Len(t, nodesToFill, 1)
	assert.Equal(t, uint32(1), nodesToFill[0].Node.GetOrder().OrderId)
	assert.Empty(t, nodesToFill[0].MakerNodes)

	ammPaused := &drift.State{ExchangeStatus: uint8(drift.ExchangeStatus_AmmPaused)}
	assert.Empty(t, findNodesToFill(newBook(), nil, fallbackAsk, ammPaused, nil))

	ammFillPaused := &types2.MarketAccount{PerpMarketAccount: &drift.PerpMarket{PausedOperations: uint8(drift.PerpOperation_AmmFill)}}
	assert.Empty(t, findNodesToFill(newBook(), nil, fallbackAsk, &drift.State{}, ammFillPaused))

	t.Run("auction gate", func(t *testing.T) {
		state := &drift.State{MinPerpAuctionDuration: 20}
		assert.Empty(t, findNodesToFill(newBook(), nil, fallbackAsk, state, nil))
	})
}

func TestFillPaused(t *testing.T) {
	dlob := newTestDLOB()
	insert(dlob, limitBid(1, priceOf(101), baseOf(1), 1), newTestUser())
	insert(dlob, limitAsk(2, priceOf(100), baseOf(1), 2), newTestUser())

	fillPaused := &drift.State{ExchangeStatus: uint8(drift.ExchangeStatus_FillPaused)}
	nodesToFill := findNodesToFill(dlob, nil, nil, fillPaused, nil)
	assert.NotNil(t, nodesToFill)
	assert.Empty(t, nodesToFill)

	marketPaused := &types2.MarketAccount{PerpMarketAccount: &drift.PerpMarket{PausedOperations: uint8(drift.PerpOperation_Fill)}}
	assert.Empty(t, findNodesToFill(dlob, nil, nil, &drift.State{}, marketPaused))
}

func TestFindNodesToTrigger(t *testing.T) {
	above := newOrder(1, drift.OrderType_TriggerMarket, drift.PositionDirection_Long, 0, baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Above, priceOf(105)))
	below := newOrder(2, drift.OrderType_TriggerMarket, drift.PositionDirection_Short, 0, baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Below, priceOf(95)))

	dlob := newTestDLOB()
	insert(dlob, above, newTestUser())
	insert(dlob, below, newTestUser())

	trigger := func(oraclePrice uint64, state *drift.State) []uint32 {
		var ids []uint32
		for _, nodeToTrigger := range dlob.FindNodesToTrigger(0, testSlot, big.NewInt(int64(oraclePrice)), drift.MarketType_Perp, state) {
			ids = append(ids, nodeToTrigger.Node.GetOrder().OrderId)
		}
		return ids
	}

	assert.Equal(t, []uint32{1}, trigger(priceOf(106), &drift.State{}))
	assert.Equal(t, []uint32{2}, trigger(priceOf(94), &drift.State{}))
	assert.Empty(t, trigger(priceOf(100), &drift.State{}))
	assert.Empty(t, trigger(priceOf(105), &drift.State{}), "trigger price must be passed, not reached")
	assert.Empty(t, trigger(priceOf(106), &drift.State{ExchangeStatus: uint8(drift.ExchangeStatus_DepositPaused)}))

	t.Run("skips orders in auction", func(t *testing.T) {
		dlob := newTestDLOB()
		insert(dlob, newOrder(3, drift.OrderType_TriggerMarket, drift.PositionDirection_Long, 0, baseOf(1), 1,
			withTrigger(drift.OrderTriggerCondition_Above, priceOf(105)),
			withAuction(20, int64(priceOf(105)), int64(priceOf(106)))), newTestUser())
		assert.Empty(t, dlob.FindNodesToTrigger(0, testSlot, big.NewInt(int64(priceOf(106))), drift.MarketType_Perp, &drift.State{}))
	})
}

func TestTriggerMovesOrder(t *testing.T) {
	dlob := newTestDLOB()
	user := newTestUser()
	insert(dlob, newOrder(1, drift.OrderType_TriggerMarket, drift.PositionDirection_Short, 0, baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Below, priceOf(95))), user)
	insert(dlob, newOrder(2, drift.OrderType_TriggerLimit, drift.PositionDirection_Long, priceOf(106), baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Above, priceOf(105))), user)

	assert.Empty(t, dlob.GetTakingAsks(0, drift.MarketType_Perp, testSlot, testOracle()).All())
	assert.Nil(t, dlob.GetBestBid(0, testSlot, drift.MarketType_Perp, testOracle()))

	for _, orderId := range []uint32{1, 2} {
		order, _ := dlob.GetOrder(orderId, user)
		require.NotNil(t, order)
		dlob.Trigger(order, user, testSlot)
	}

	assert.Equal(t, []uint32{1}, orderIds(dlob.GetTakingAsks(0, drift.MarketType_Perp, testSlot, testOracle()).All()))
	assert.Equal(t, priceOf(106), dlob.GetBestBid(0, testSlot, drift.MarketType_Perp, testOracle()).Uint64())
	assert.Empty(t, dlob.FindNodesToTrigger(0, testSlot, big.NewInt(int64(priceOf(200))), drift.MarketType_Perp, &drift.State{}))
	assert.Empty(t, dlob.FindNodesToTrigger(0, testSlot, big.NewInt(int64(priceOf(1))), drift.MarketType_Perp, &drift.State{}))

	triggered, _ := dlob.GetOrder(1, user)
	assert.Equal(t, drift.OrderTriggerCondition_TriggeredBelow, triggered.TriggerCondition)
	triggered, _ = dlob.GetOrder(2, user)
	assert.Equal(t, drift.OrderTriggerCondition_TriggeredAbove, triggered.TriggerCondition)
	assert.Equal(t, 2, dlob.Size())
}

func TestStopLossAndTakeProfit(t *testing.T) {
	dlob := newTestDLOB()
	user := newTestUser()
	insert(dlob, newOrder(1, drift.OrderType_TriggerMarket, drift.PositionDirection_Short, 0, baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Below, priceOf(95))), user)
	insert(dlob, newOrder(2, drift.OrderType_TriggerLimit, drift.PositionDirection_Short, priceOf(105), baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Above, priceOf(105))), user)
	insert(dlob, newOrder(3, drift.OrderType_TriggerMarket, drift.PositionDirection_Long, 0, baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Above, priceOf(110))), user)
	insert(dlob, newOrder(4, drift.OrderType_TriggerLimit, drift.PositionDirection_Long, priceOf(90), baseOf(1), 1,
		withTrigger(drift.OrderTriggerCondition_Below, priceOf(90))), user)

	long, short := drift.PositionDirection_Long, drift.PositionDirection_Short
	assert.Equal(t, []uint32{1}, orderIds(dlob.GetStopLosses(0, drift.MarketType_Perp, long).All()))
	assert.Equal(t, []uint32{2}, orderIds(dlob.GetTakeProfits(0, drift.MarketType_Perp, long).All()))
	assert.Equal(t, []uint32{3}, orderIds(dlob.GetStopLosses(0, drift.MarketType_Perp, short).All()))
	assert.Equal(t, []uint32{4}, orderIds(dlob.GetTakeProfits(0, drift.MarketType_Perp, short).All()))

	assert.Equal(t, []uint32{1}, orderIds(dlob.GetStopLossMarkets(0, drift.MarketType_Perp, long).All()))
	assert.Empty(t, dlob.GetStopLossLimits(0, drift.MarketType_Perp, long).All())
	assert.Equal(t, []uint32{2}, orderIds(dlob.GetTakeProfitLimits(0, drift.MarketType_Perp, long).All()))
	assert.Empty(t, dlob.GetTakeProfitMarkets(0, drift.MarketType_Perp, long).All())
	assert.Empty(t, dlob.GetStopLosses(1, drift.MarketType_Perp, long).All(), "unknown market")
}

func TestFindExpiredNodesToFill(t *testing.T) {
	dlob := newTestDLOB()
	insert(dlob, limitBid(1, priceOf(99), baseOf(1), 1, withMaxTs(100)), newTestUser())
	insert(dlob, newOrder(2, drift.OrderType_Market, drift.PositionDirection_Long, 0, baseOf(1), 1, withMaxTs(100)), newTestUser())
	insert(dlob, limitAsk(3, priceOf(101), baseOf(1), 1), newTestUser())

	expired := func(ts int64) []uint32 {
		return orderIdsOfTakers(dlob.FindExpiredNodesToFill(0, ts, drift.MarketType_Perp))
	}
	assert.Empty(t, expired(100))
	assert.Equal(t, []uint32{2}, expired(110))
	assert.ElementsMatch(t, []uint32{1, 2}, expired(116))
}

func TestSpotRequiresOraclePriceData(t *testing.T) {
	dlob := newTestDLOB()
	assert.PanicsWithValue(t, ErrOraclePriceDataRequired, func() {
		dlob.GetRestingLimitBids(0, testSlot, drift.MarketType_Spot, nil, nil)
	})
	assert.PanicsWithValue(t, ErrOraclePriceDataRequired, func() {
		dlob.GetAsks(0, nil, testSlot, drift.MarketType_Spot, nil)
	})
	assert.NotPanics(t, func() {
		dlob.GetRestingLimitBids(0, testSlot, drift.MarketType_Perp, nil, nil).All()
	})
}

func TestUpdateByUser(t *testing.T) {
	dlob := newTestDLOB()
	key := newTestUser()

	user := &drift.User{Authority: newTestUser()}
	user.Orders[0] = *limitBid(1, priceOf(100), baseOf(2), 5)
	user.Orders[1] = *limitAsk(2, priceOf(105), baseOf(1), 5)
	user.Orders[2] = *newOrder(3, drift.OrderType_TriggerMarket, drift.PositionDirection_Long, 0, baseOf(1), 5,
		withTrigger(drift.OrderTriggerCondition_Above, priceOf(110)))
	dlob.UpdateByUser(key, user, 10)
	assert.Equal(t, 3, dlob.Size())

	next := &drift.User{Authority: user.Authority}
	next.Orders[0] = *limitBid(1, priceOf(100), baseOf(2), 5, withFilled(baseOf(1)))
	next.Orders[1] = *limitAsk(4, priceOf(106), baseOf(1), 11)
	next.Orders[2] = user.Orders[2]
	next.Orders[2].TriggerCondition = drift.OrderTriggerCondition_TriggeredAbove
	dlob.UpdateByUser(key, next, 11)

	bid, slot := dlob.GetOrder(1, key)
	require.NotNil(t, bid)
	assert.Equal(t, baseOf(1), bid.BaseAssetAmountFilled)
	assert.Equal(t, uint64(11), slot)

	removed, _ := dlob.GetOrder(2, key)
	assert.Nil(t, removed)
	added, _ := dlob.GetOrder(4, key)
	assert.NotNil(t, added)
	assert.Equal(t, []uint32{3}, orderIds(dlob.GetTakingBids(0, drift.MarketType_Perp, 11, testOracle()).All()))
	assert.Equal(t, 3, dlob.Size())

	l3 := dlob.GetL3(0, drift.MarketType_Perp, 11, testOracle())
	require.Len(t, l3.Bids, 1)
	assert.Equal(t, baseOf(1), l3.Bids[0].Size.Uint64())

	dlob.UpdateByUser(key, &drift.User{}, 9)
	assert.Equal(t, 3, dlob.Size(), "older snapshot is ignored")

	dlob.UpdateByUser(key, &drift.User{}, 12)
	assert.Equal(t, 0, dlob.Size())
	assert.Empty(t, dlob.UserOrderMap)
}

func TestHandleOrderRecords(t *testing.T) {
	dlob := newTestDLOB()
	user := newTestUser()

	dlob.HandleOrderRecord(&drift.OrderRecord{User: user, Order: *limitAsk(1, priceOf(100), baseOf(2), 1)}, testSlot)
	dlob.HandleOrderRecord(&drift.OrderRecord{User: user, Order: *limitAsk(2, priceOf(101), baseOf(1), 1)}, testSlot)
	assert.Equal(t, 2, dlob.Size())

	fill := func(orderId uint32, cumulative uint64) *drift.OrderActionRecord {
		record := &drift.OrderActionRecord{
			Action:       drift.OrderAction_Fill,
			Maker:        &user,
			MakerOrderId: utils.NewPtr(orderId),
		}
		record.MakerOrderCumulativeBaseAssetAmountFilled = utils.NewPtr(cumulative)
		return record
	}

	dlob.HandleOrderActionRecord(fill(1, baseOf(1)), testSlot)
	order, _ := dlob.GetOrder(1, user)
	require.NotNil(t, order)
	assert.Equal(t, baseOf(1), order.BaseAssetAmountFilled)

	dlob.HandleOrderActionRecord(fill(1, baseOf(2)), testSlot)
	order, _ = dlob.GetOrder(1, user)
	assert.Nil(t, order)
	assert.Equal(t, 1, dlob.Size())

	dlob.HandleOrderActionRecord(&drift.OrderActionRecord{
		Action:       drift.OrderAction_Cancel,
		Taker:        &user,
		TakerOrderId: utils.NewPtr(uint32(2)),
	}, testSlot)
	assert.Equal(t, 0, dlob.Size())

	dlob.HandleOrderActionRecord(&drift.OrderActionRecord{Action: drift.OrderAction_Place}, testSlot)
	assert.Equal(t, 0, dlob.Size())
}

func TestGetL2(t *testing.T) {
	dlob := newTestDLOB()
	insert(dlob, limitAsk(1, priceOf(101), baseOf(1), 1), newTestUser())
	insert(dlob, limitAsk(2, priceOf(101), baseOf(2), 2), newTestUser())
	insert(dlob, limitAsk(3, priceOf(103), baseOf(1), 3), newTestUser())
	insert(dlob, limitBid(4, priceOf(99), baseOf(1), 4), newTestUser())
	insert(dlob, limitBid(5, priceOf(98), baseOf(3), 5, withFilled(baseOf(1))), newTestUser())

	params := types.L2Params{
		MarketIndex:     0,
		MarketType:      drift.MarketType_Perp,
		Slot:            testSlot,
		OraclePriceData: testOracle(),
	}
	l2 := dlob.GetL2(params)
	require.Len(t, l2.Asks, 2)
	require.Len(t, l2.Bids, 2)
	assert.Equal(t, priceOf(101), l2.Asks[0].Price.Uint64())
	assert.Equal(t, baseOf(3), l2.Asks[0].Size.Uint64())
	assert.Equal(t, baseOf(3), l2.Asks[0].Sources[types.LiquiditySourceDlob].Uint64())
	assert.Equal(t, priceOf(103), l2.Asks[1].Price.Uint64())
	assert.Equal(t, priceOf(99), l2.Bids[0].Price.Uint64())
	assert.Equal(t, baseOf(2), l2.Bids[1].Size.Uint64())
	assert.Equal(t, testSlot, l2.Slot)

	params.Depth = 1
	l2 = dlob.GetL2(params)
	assert.Len(t, l2.Asks, 1)
	assert.Len(t, l2.Bids, 1)

	params.Depth = 0
	params.FallbackL2Generators = []*types.L2OrderBookGenerator{
		GetStaticL2Generator(
			[]*types.L2Level{
				{Price: big.NewInt(int64(priceOf(101))), Size: big.NewInt(int64(baseOf(4)))},
				{Price: big.NewInt(int64(priceOf(102))), Size: big.NewInt(int64(baseOf(5)))},
			},
			nil,
			types.LiquiditySourceIndicative,
		),
	}
	l2 = dlob.GetL2(params)
	require.Len(t, l2.Asks, 3)
	assert.Equal(t, baseOf(7), l2.Asks[0].Size.Uint64())
	assert.Equal(t, baseOf(4), l2.Asks[0].Sources[types.LiquiditySourceIndicative].Uint64())
	assert.Equal(t, baseOf(3), l2.Asks[0].Sources[types.LiquiditySourceDlob].Uint64())
	assert.Equal(t, priceOf(102), l2.Asks[1].Price.Uint64())
	assert.Len(t, l2.Bids, 2)
}

func TestGetL3(t *testing.T) {
	dlob := newTestDLOB()
	makerA, makerB := newTestUser(), newTestUser()
	insert(dlob, limitAsk(1, priceOf(102), baseOf(1), 1), makerA)
	insert(dlob, limitAsk(2, priceOf(101), baseOf(2), 2), makerB)
	insert(dlob, limitBid(3, priceOf(99), baseOf(1), 3), makerA)

	l3 := dlob.GetL3(0, drift.MarketType_Perp, testSlot, testOracle())
	require.Len(t, l3.Asks, 2)
	require.Len(t, l3.Bids, 1)
	assert.Equal(t, makerB, l3.Asks[0].Maker)
	assert.Equal(t, uint32(2), l3.Asks[0].OrderId)
	assert.Equal(t, priceOf(101), l3.Asks[0].Price.Uint64())
	assert.Equal(t, baseOf(2), l3.Asks[0].Size.Uint64())
	assert.Equal(t, makerA, l3.Bids[0].Maker)
}

func TestGetBestMakers(t *testing.T) {
	dlob := newTestDLOB()
	makerA, makerB, makerC := newTestUser(), newTestUser(), newTestUser()
	insert(dlob, limitBid(1, priceOf(100), baseOf(1), 1), makerA)
	insert(dlob, limitBid(2, priceOf(99), baseOf(1), 2), makerB)
	insert(dlob, limitBid(3, priceOf(98), baseOf(1), 3), makerA)
	insert(dlob, limitBid(4, priceOf(97), baseOf(1), 4), makerC)

	makers := dlob.GetBestMakers(0, drift.MarketType_Perp, drift.PositionDirection_Long, testSlot, testOracle(), 2)
	assert.Equal(t, []solana.PublicKey{makerA, makerB}, makers)

	makers = dlob.GetBestMakers(0, drift.MarketType_Perp, drift.PositionDirection_Long, testSlot, testOracle(), 5)
	assert.Equal(t, []solana.PublicKey{makerA, makerB, makerC}, makers)

	assert.Empty(t, dlob.GetBestMakers(0, drift.MarketType_Perp, drift.PositionDirection_Short, testSlot, testOracle(), 2))
}

func TestEstimateFillWithExactBaseAmount(t *testing.T) {
	dlob := newTestDLOB()
	insert(dlob, limitAsk(1, priceOf(100), baseOf(1), 1), newTestUser())
	insert(dlob, limitAsk(2, priceOf(102), baseOf(1), 2), newTestUser())

	quote := dlob.EstimateFillWithExactBaseAmount(
		0,
		drift.MarketType_Perp,
		big.NewInt(1_500_000_000),
		drift.PositionDirection_Long,
		testSlot,
		testOracle(),
	)
	assert.Equal(t, int64(151_000_000), quote.Int64())

	quote = dlob.EstimateFillWithExactBaseAmount(
		0,
		drift.MarketType_Perp,
		big.NewInt(1_500_000_000),
		drift.PositionDirection_Short,
		testSlot,
		testOracle(),
	)
	assert.Equal(t, int64(0), quote.Int64())
}

func TestTakingLimitBecomesResting(t *testing.T) {
	dlob := newTestDLOB()
	order := limitBid(1, priceOf(101), baseOf(1), testSlot, withAuction(5, int64(priceOf(99)), int64(priceOf(101))))
	insert(dlob, order, newTestUser())

	assert.Equal(t, []uint32{1}, orderIds(dlob.GetTakingBids(0, drift.MarketType_Perp, testSlot, testOracle()).All()))
	assert.Empty(t, dlob.GetRestingLimitBids(0, testSlot, drift.MarketType_Perp, testOracle(), nil).All())
	assert.Len(t, dlob.FindJitAuctionNodesToFill(0, testSlot, testOracle(), drift.MarketType_Perp), 1)

	laterSlot := testSlot + 6
	assert.Equal(t, []uint32{1}, orderIds(dlob.GetRestingLimitBids(0, laterSlot, drift.MarketType_Perp, testOracle(), nil).All()))
	assert.Empty(t, dlob.GetTakingBids(0, drift.MarketType_Perp, laterSlot, testOracle()).All())
	assert.Empty(t, dlob.FindJitAuctionNodesToFill(0, laterSlot, testOracle(), drift.MarketType_Perp))
}

func TestFloatingLimitPricedOffOracle(t *testing.T) {
	dlob := newTestDLOB()
	floating := limitAsk(1, 0, baseOf(1), 1)
	floating.OraclePriceOffset = int32(priceOf(1))
	insert(dlob, floating, newTestUser())
	insert(dlob, limitAsk(2, priceOf(102), baseOf(1), 2), newTestUser())

	asks := dlob.GetRestingLimitAsks(0, testSlot, drift.MarketType_Perp, testOracle(), nil).All()
	assert.Equal(t, []uint32{1, 2}, orderIds(asks))
	assert.Equal(t, priceOf(101), asks[0].GetPrice(testOracle(), testSlot).Uint64())
}

func TestSignedMsgOrder(t *testing.T) {
	dlob := newTestDLOB()
	maker, taker := newTestUser(), newTestUser()
	insert(dlob, limitAsk(1, priceOf(101), baseOf(5), 1), maker)
	signedMsgOrder := newOrder(7, drift.OrderType_Market, drift.PositionDirection_Long, 0, baseOf(1), testSlot)
	dlob.InsertSignedMsgOrder(signedMsgOrder, taker.String(), false)

	nodesToFill := findNodesToFill(dlob, nil, nil, &drift.State{}, nil)
	require.Len(t, nodesToFill, 1)
	assert.True(t, nodesToFill[0].Node.IsSignedMsg())
	assert.Len(t, dlob.GetDLOBOrders(), 1)

	dlob.DeleteSignedMsgOrder(signedMsgOrder, taker.String())
	assert.Empty(t, dlob.GetTakingBids(0, drift.MarketType_Perp, testSlot, testOracle()).All())
}

func TestSkipsUsersBeingLiquidated(t *testing.T) {
	dlob := newTestDLOB()
	liquidated, healthy := newTestUser(), newTestUser()
	users := userMap.CreateUserMap(userMapTypes.UserMapConfig{})
	users.AddPubkey(liquidated, &drift.User{Status: uint8(drift.UserStatus_BeingLiquidated)}, 1)
	users.AddPubkey(healthy, &drift.User{}, 1)
	dlob.SetUserMap(users)

	insert(dlob, limitAsk(1, priceOf(100), baseOf(1), 1), liquidated)
	insert(dlob, limitAsk(2, priceOf(101), baseOf(1), 1), healthy)

	asks := dlob.GetRestingLimitAsks(0, testSlot, drift.MarketType_Perp, testOracle(), nil).All()
	assert.Equal(t, []uint32{2}, orderIds(asks))
}

func TestInsertOrder(t *testing.T) {
	dlob := newTestDLOB()
	user := newTestUser()

	canceled := limitBid(1, priceOf(100), baseOf(1), 1)
	canceled.Status = drift.OrderStatus_Canceled
	insert(dlob, canceled, user)
	assert.Equal(t, 0, dlob.Size())

	order := limitBid(2, priceOf(100), baseOf(1), 1)
	inserted := 0
	dlob.InsertOrder(order, user.String(), 1, false, func() { inserted++ })
	insert(dlob, order, user)
	assert.Equal(t, 1, dlob.Size())
	assert.Equal(t, 1, inserted)

	order.Price = priceOf(1)
	assert.Equal(t, priceOf(100), dlob.GetBestBid(0, testSlot, drift.MarketType_Perp, testOracle()).Uint64(),
		"the book keeps its own copy")

	spot := limitAsk(3, priceOf(1), baseOf(1), 1)
	spot.MarketType = drift.MarketType_Spot
	spot.MarketIndex = 5
	insert(dlob, spot, user)
	assert.Equal(t, 2, dlob.Size())
	assert.Equal(t, priceOf(1), dlob.GetBestAsk(5, testSlot, drift.MarketType_Spot, testOracle()).Uint64())

	dlob.Clear()
	assert.Equal(t, 0, dlob.Size())
}

func TestInsertOrderBulk(t *testing.T) {
	dlob := newTestDLOB()
	maker := newTestUser()
	protected := newTestUser()

	dlob.InsertOrderBulk([]*types.BulkOrder{
		{Order: limitAsk(1, priceOf(101), baseOf(5), 1, withFilled(baseOf(2))), UserAccount: maker, Slot: 1},
		{Order: limitBid(2, priceOf(99), baseOf(1), 1), UserAccount: protected, Slot: 1, IsProtectedMaker: true},
	})
	assert.Equal(t, 2, dlob.Size())

	l3 := dlob.GetL3(0, drift.MarketType_Perp, testSlot, testOracle())
	require.Len(t, l3.Asks, 1)
	assert.Equal(t, int64(baseOf(3)), l3.Asks[0].Size.Int64(), "fill progress comes from the order")

	order, _ := dlob.GetOrder(1, maker)
	require.NotNil(t, order)
	assert.Equal(t, baseOf(2), order.BaseAssetAmountFilled)

	var protectedFlags []bool
	dlob.GetRestingLimitBids(0, testSlot, drift.MarketType_Perp, testOracle(), nil).Each(func(node types.IDLOBNode, key int) bool {
		protectedFlags = append(protectedFlags, node.IsProtectedMaker())
		return false
	})
	assert.Equal(t, []bool{true}, protectedFlags)
}

func TestProtectedMakerQuote(t *testing.T) {
	dlob := newTestDLOB()
	dlob.SetProtectedMakerParams(drift.MarketType_Perp, 0, &types2.ProtectedMakerParams{
		LimitPriceDivisor: 10,
		TickSize:          big.NewInt(1),
		DynamicOffset:     big.NewInt(0),
	})
	dlob.InsertOrder(limitBid(1, priceOf(100), baseOf(1), 1), newTestUser().String(), 1, true)

	assert.Equal(t, priceOf(100)-priceOf(100)/1000, dlob.GetBestBid(0, testSlot, drift.MarketType_Perp, testOracle()).Uint64())
}
