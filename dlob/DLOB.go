package dlob

import (
	"math/big"
	"math/rand/v2"

	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/math"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
	types3 "github.com/drift-labs/protocol-v2-sub007/userMap/types"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

type MarketNodeList map[types.DLOBNodeSubType]*NodeList

type MarketNodeLists map[types.DLOBNodeType]MarketNodeList

type UserOrderAndSlot struct {
	Order *drift.Order
	Slot  uint64
}

// DLOB is not safe for concurrent use. Callers that mutate it from several
// goroutines serialise the calls themselves, see DLOBSubscriber.
type DLOB struct {
	OpenOrders                   map[drift.MarketType]map[string]bool
	OrderLists                   map[drift.MarketType]map[uint16]MarketNodeLists
	UserOrderMap                 map[string]map[uint32]*UserOrderAndSlot
	UserSlotMap                  map[string]uint64
	MaxSlotForRestingLimitOrders uint64
	Initialized                  bool

	perpMarketIndexes    []uint16
	spotMarketIndexes    []uint16
	userMap              types3.IUserLookup
	protectedMakerParams map[drift.MarketType]map[uint16]*types2.ProtectedMakerParams
	coinFlip             func() bool
}

func NewDLOB(perpMarketIndexes []uint16, spotMarketIndexes []uint16) *DLOB {
	dlob := &DLOB{
		perpMarketIndexes: perpMarketIndexes,
		spotMarketIndexes: spotMarketIndexes,
		protectedMakerParams: map[drift.MarketType]map[uint16]*types2.ProtectedMakerParams{
			drift.MarketType_Perp: {},
			drift.MarketType_Spot: {},
		},
		coinFlip: func() bool {
			return rand.IntN(2) == 0
		},
	}
	dlob.init()
	return dlob
}

func (p *DLOB) init() {
	p.OpenOrders = map[drift.MarketType]map[string]bool{
		drift.MarketType_Perp: {},
		drift.MarketType_Spot: {},
	}
	p.OrderLists = map[drift.MarketType]map[uint16]MarketNodeLists{
		drift.MarketType_Perp: {},
		drift.MarketType_Spot: {},
	}
	p.UserOrderMap = make(map[string]map[uint32]*UserOrderAndSlot)
	p.UserSlotMap = make(map[string]uint64)
	p.MaxSlotForRestingLimitOrders = 0
	p.Initialized = false

	for _, marketIndex := range p.perpMarketIndexes {
		p.AddOrderList(drift.MarketType_Perp, marketIndex)
	}
	for _, marketIndex := range p.spotMarketIndexes {
		p.AddOrderList(drift.MarketType_Spot, marketIndex)
	}
}

// SetUserMap installs the lookup used for authority based self trade checks
// and for skipping users under liquidation.
func (p *DLOB) SetUserMap(userMap types3.IUserLookup) {
	p.userMap = userMap
}

func (p *DLOB) SetProtectedMakerParams(
	marketType drift.MarketType,
	marketIndex uint16,
	params *types2.ProtectedMakerParams,
) {
	p.protectedMakerParams[marketType][marketIndex] = params
}

// SetCoinFlip replaces the random source used when two post only orders
// cross each other.
func (p *DLOB) SetCoinFlip(coinFlip func() bool) {
	if coinFlip != nil {
		p.coinFlip = coinFlip
	}
}

func (p *DLOB) Clear() {
	for _, marketLists := range p.OrderLists {
		for _, nodeLists := range marketLists {
			for _, sides := range nodeLists {
				for _, nodeList := range sides {
					nodeList.Clear()
				}
			}
		}
	}
	p.init()
}

func (p *DLOB) addUserOrderMap(userAccountKey string, order *drift.Order, slot uint64) bool {
	userOrders, exists := p.UserOrderMap[userAccountKey]
	if !exists {
		userOrders = make(map[uint32]*UserOrderAndSlot)
		p.UserOrderMap[userAccountKey] = userOrders
	}
	orderCopy := *order
	userOrder, exists := userOrders[order.OrderId]
	if !exists {
		userOrders[order.OrderId] = &UserOrderAndSlot{
			Order: &orderCopy,
			Slot:  slot,
		}
		return true
	}
	if userOrder.Slot <= slot {
		userOrder.Order = &orderCopy
		userOrder.Slot = slot
		return true
	}
	return false
}

func (p *DLOB) deleteUserOrderMap(userAccountKey string, order *drift.Order) {
	userOrders, exists := p.UserOrderMap[userAccountKey]
	if !exists {
		return
	}
	delete(userOrders, order.OrderId)
	if len(userOrders) == 0 {
		delete(p.UserOrderMap, userAccountKey)
	}
}

func (p *DLOB) InitFromUserMap(
	userMap types3.IUserMap,
	slot uint64,
) bool {
	if p.Initialized {
		return false
	}

	var orders []*types.BulkOrder
	userMap.Values().Each(func(user types3.IUser, key int) bool {
		userAccount := user.GetUserAccount()
		userAccountPubkey := user.GetUserAccountPublicKey()
		p.UserSlotMap[userAccountPubkey.String()] = slot
		isProtectedMaker := userAccount.IsProtectedMaker()
		for idx := 0; idx < len(userAccount.Orders); idx++ {
			order := &userAccount.Orders[idx]
			if order.Status != drift.OrderStatus_Open || !isSupportedOrderType(order) {
				continue
			}
			orders = append(orders, &types.BulkOrder{
				Order:            order,
				UserAccount:      userAccountPubkey,
				Slot:             slot,
				IsProtectedMaker: isProtectedMaker,
			})
		}
		return false
	})
	if len(orders) > 0 {
		p.InsertOrderBulk(orders)
	}
	p.Initialized = true
	return true
}

func (p *DLOB) InitFromOrders(dlobOrders DLOBOrders, slot uint64) bool {
	if p.Initialized {
		return false
	}

	for _, dlobOrder := range dlobOrders {
		if dlobOrder == nil || dlobOrder.Order == nil {
			continue
		}
		p.InsertOrder(dlobOrder.Order, dlobOrder.User.String(), slot, false)
	}
	p.Initialized = true
	return true
}

func (p *DLOB) HandleOrderRecord(record *drift.OrderRecord, slot uint64) {
	p.InsertOrder(&record.Order, record.User.String(), slot, false)
}

func (p *DLOB) HandleOrderActionRecord(record *drift.OrderActionRecord, slot uint64) {
	if record.Action == drift.OrderAction_Place || record.Action == drift.OrderAction_Expire {
		return
	}

	type participant struct {
		user            *solana.PublicKey
		orderId         *uint32
		cumulativeFills *uint64
	}
	participants := []participant{
		{record.Taker, record.TakerOrderId, record.TakerOrderCumulativeBaseAssetAmountFilled},
		{record.Maker, record.MakerOrderId, record.MakerOrderCumulativeBaseAssetAmountFilled},
	}

	for _, participant := range participants {
		if participant.user == nil || participant.orderId == nil {
			continue
		}
		order, _ := p.GetOrder(*participant.orderId, *participant.user)
		if order == nil {
			continue
		}
		switch record.Action {
		case drift.OrderAction_Trigger:
			p.Trigger(order, *participant.user, slot)
		case drift.OrderAction_Fill:
			if participant.cumulativeFills == nil {
				continue
			}
			p.UpdateOrder(order, *participant.user, slot, utils.BN(*participant.cumulativeFills))
		case drift.OrderAction_Cancel:
			p.Delete(order, *participant.user, slot)
		}
	}
}

// UpdateByUser diffs a fresh snapshot of one user account against the orders
// the book holds for it.
func (p *DLOB) UpdateByUser(userAccountKey solana.PublicKey, userAccount *drift.User, slot uint64) {
	key := userAccountKey.String()
	if lastSlot, exists := p.UserSlotMap[key]; exists && lastSlot > slot {
		return
	}
	p.UserSlotMap[key] = slot

	known := make(map[uint32]*UserOrderAndSlot)
	for orderId, userOrder := range p.UserOrderMap[key] {
		known[orderId] = userOrder
	}

	isProtectedMaker := userAccount.IsProtectedMaker()
	for idx := 0; idx < len(userAccount.Orders); idx++ {
		order := userAccount.Orders[idx]
		if order.Status != drift.OrderStatus_Open || !isSupportedOrderType(&order) {
			continue
		}
		userOrder, exists := known[order.OrderId]
		if !exists {
			p.InsertOrder(&order, key, slot, isProtectedMaker)
			continue
		}
		delete(known, order.OrderId)

		stored := userOrder.Order
		if math.MustBeTriggered(stored) && !math.IsTriggered(stored) && math.IsTriggered(&order) {
			p.Trigger(stored, userAccountKey, slot)
			if stored, _ = p.GetOrder(order.OrderId, userAccountKey); stored == nil {
				continue
			}
		}
		if stored.BaseAssetAmountFilled != order.BaseAssetAmountFilled {
			p.UpdateOrder(stored, userAccountKey, slot, utils.BN(order.BaseAssetAmountFilled))
			continue
		}
		p.addUserOrderMap(key, &order, slot)
	}

	for _, userOrder := range known {
		p.Delete(userOrder.Order, userAccountKey, slot)
	}
}

func (p *DLOB) GetUserSlot(key string) uint64 {
	return p.UserSlotMap[key]
}

func isSupportedOrderType(order *drift.Order) bool {
	switch order.OrderType {
	case drift.OrderType_Market,
		drift.OrderType_Limit,
		drift.OrderType_TriggerMarket,
		drift.OrderType_TriggerLimit,
		drift.OrderType_Oracle:
		return true
	}
	return false
}

func (p *DLOB) getProtectedMakerParams(marketType drift.MarketType, marketIndex uint16) *types2.ProtectedMakerParams {
	return p.protectedMakerParams[marketType][marketIndex]
}

func (p *DLOB) getOrAddOrderList(marketType drift.MarketType, marketIndex uint16) MarketNodeLists {
	nodeLists, exists := p.OrderLists[marketType][marketIndex]
	if !exists {
		nodeLists = p.AddOrderList(marketType, marketIndex)
	}
	return nodeLists
}

func (p *DLOB) InsertOrder(
	order *drift.Order,
	userAccount string,
	slot uint64,
	isProtectedMaker bool,
	onInsert ...types.OrderBookCallback,
) {
	if order.Status != drift.OrderStatus_Open || !isSupportedOrderType(order) {
		return
	}
	marketType := order.MarketType
	p.getOrAddOrderList(marketType, order.MarketIndex)

	p.OpenOrders[marketType][GetOrderSignature(order.OrderId, userAccount)] = true
	p.GetListForOrder(order, slot).Insert(
		order,
		marketType,
		userAccount,
		isProtectedMaker,
		p.getProtectedMakerParams(marketType, order.MarketIndex),
	)
	p.addUserOrderMap(userAccount, order, slot)

	if len(onInsert) > 0 && onInsert[0] != nil {
		onInsert[0]()
	}
}

func (p *DLOB) InsertOrderBulk(
	orders []*types.BulkOrder,
) {
	for _, order := range orders {
		p.InsertOrder(order.Order, order.UserAccount.String(), order.Slot, order.IsProtectedMaker)
	}
}

// InsertSignedMsgOrder adds an order that has not landed on chain yet. It
// takes part in matching as a taker until DeleteSignedMsgOrder drops it.
func (p *DLOB) InsertSignedMsgOrder(
	order *drift.Order,
	userAccount string,
	isProtectedMaker bool,
	onInsert ...types.OrderBookCallback,
) {
	if order.Status != drift.OrderStatus_Open {
		return
	}
	marketType := order.MarketType
	nodeLists := p.getOrAddOrderList(marketType, order.MarketIndex)

	p.OpenOrders[marketType][GetOrderSignature(order.OrderId, userAccount)] = true
	nodeLists[types.NodeTypeSignedMsg][sideForDirection(order.Direction)].Insert(
		order,
		marketType,
		userAccount,
		isProtectedMaker,
		p.getProtectedMakerParams(marketType, order.MarketIndex),
	)

	if len(onInsert) > 0 && onInsert[0] != nil {
		onInsert[0]()
	}
}

func (p *DLOB) DeleteSignedMsgOrder(
	order *drift.Order,
	userAccount string,
) {
	nodeLists, exists := p.OrderLists[order.MarketType][order.MarketIndex]
	if !exists {
		return
	}
	delete(p.OpenOrders[order.MarketType], GetOrderSignature(order.OrderId, userAccount))
	nodeLists[types.NodeTypeSignedMsg][sideForDirection(order.Direction)].Remove(order, userAccount)
}

func sideForDirection(direction drift.PositionDirection) types.DLOBNodeSubType {
	if direction == drift.PositionDirection_Long {
		return types.NodeSubTypeBid
	}
	return types.NodeSubTypeAsk
}

func (p *DLOB) AddOrderList(marketType drift.MarketType, marketIndex uint16) MarketNodeLists {
	nodeLists := MarketNodeLists{
		types.NodeTypeRestingLimit: {
			types.NodeSubTypeAsk: CreateNodeList(types.NodeTypeRestingLimit, SortDirectionAsc),
			types.NodeSubTypeBid: CreateNodeList(types.NodeTypeRestingLimit, SortDirectionDesc),
		},
		types.NodeTypeFloatingLimit: {
			types.NodeSubTypeAsk: CreateNodeList(types.NodeTypeFloatingLimit, SortDirectionAsc),
			types.NodeSubTypeBid: CreateNodeList(types.NodeTypeFloatingLimit, SortDirectionDesc),
		},
		types.NodeTypeTakingLimit: {
			types.NodeSubTypeAsk: CreateNodeList(types.NodeTypeTakingLimit, SortDirectionAsc),
			types.NodeSubTypeBid: CreateNodeList(types.NodeTypeTakingLimit, SortDirectionAsc),
		},
		types.NodeTypeMarket: {
			types.NodeSubTypeAsk: CreateNodeList(types.NodeTypeMarket, SortDirectionAsc),
			types.NodeSubTypeBid: CreateNodeList(types.NodeTypeMarket, SortDirectionAsc),
		},
		types.NodeTypeSignedMsg: {
			types.NodeSubTypeAsk: CreateNodeList(types.NodeTypeSignedMsg, SortDirectionAsc),
			types.NodeSubTypeBid: CreateNodeList(types.NodeTypeSignedMsg, SortDirectionAsc),
		},
		types.NodeTypeTrigger: {
			types.NodeSubTypeAbove: CreateNodeList(types.NodeTypeTrigger, SortDirectionAsc),
			types.NodeSubTypeBelow: CreateNodeList(types.NodeTypeTrigger, SortDirectionDesc),
		},
	}
	p.OrderLists[marketType][marketIndex] = nodeLists
	return nodeLists
}

// UpdateOrder records fill progress. An order filled in full is removed.
func (p *DLOB) UpdateOrder(
	order *drift.Order,
	userAccount solana.PublicKey,
	slot uint64,
	cumulativeBaseAssetAmountFilled *big.Int,
	onUpdate ...types.OrderBookCallback,
) {
	p.UpdateRestingLimitOrders(slot)

	if utils.BN(order.BaseAssetAmount).Cmp(cumulativeBaseAssetAmountFilled) == 0 {
		p.Delete(order, userAccount, slot)
		return
	}
	if utils.BN(order.BaseAssetAmountFilled).Cmp(cumulativeBaseAssetAmountFilled) == 0 {
		return
	}

	newOrder := *order
	newOrder.BaseAssetAmountFilled = cumulativeBaseAssetAmountFilled.Uint64()
	key := userAccount.String()
	p.addUserOrderMap(key, &newOrder, slot)
	if nodeList := p.findListForOrder(&newOrder, key, slot); nodeList != nil {
		nodeList.Update(&newOrder, key)
	}

	if len(onUpdate) > 0 && onUpdate[0] != nil {
		onUpdate[0]()
	}
}

// Trigger moves a trigger order out of its trigger list into the list its
// triggered form belongs to.
func (p *DLOB) Trigger(
	order *drift.Order,
	userAccount solana.PublicKey,
	slot uint64,
	onTrigger ...types.OrderBookCallback,
) {
	if order.Status == drift.OrderStatus_Init || !math.MustBeTriggered(order) {
		return
	}
	p.UpdateRestingLimitOrders(slot)

	nodeLists, exists := p.OrderLists[order.MarketType][order.MarketIndex]
	if !exists {
		return
	}
	key := userAccount.String()

	triggered := *order
	switch order.TriggerCondition {
	case drift.OrderTriggerCondition_Above, drift.OrderTriggerCondition_TriggeredAbove:
		triggered.TriggerCondition = drift.OrderTriggerCondition_TriggeredAbove
	default:
		triggered.TriggerCondition = drift.OrderTriggerCondition_TriggeredBelow
	}
	triggerSide := types.NodeSubTypeBelow
	if triggered.TriggerCondition == drift.OrderTriggerCondition_TriggeredAbove {
		triggerSide = types.NodeSubTypeAbove
	}

	triggerList := nodeLists[types.NodeTypeTrigger][triggerSide]
	isProtectedMaker := false
	if node := triggerList.Get(GetOrderSignature(order.OrderId, key)); node != nil {
		isProtectedMaker = node.IsProtectedMaker()
	}
	triggerList.Remove(order, key)

	p.GetListForOrder(&triggered, slot).Insert(
		&triggered,
		triggered.MarketType,
		key,
		isProtectedMaker,
		p.getProtectedMakerParams(triggered.MarketType, triggered.MarketIndex),
	)
	p.addUserOrderMap(key, &triggered, slot)

	if len(onTrigger) > 0 && onTrigger[0] != nil {
		onTrigger[0]()
	}
}

func (p *DLOB) Delete(
	order *drift.Order,
	userAccount solana.PublicKey,
	slot uint64,
	onDelete ...types.OrderBookCallback,
) {
	if order.Status == drift.OrderStatus_Init {
		return
	}
	p.UpdateRestingLimitOrders(slot)

	key := userAccount.String()
	p.deleteUserOrderMap(key, order)
	if openOrders, exists := p.OpenOrders[order.MarketType]; exists {
		delete(openOrders, GetOrderSignature(order.OrderId, key))
	}
	if nodeList := p.findListForOrder(order, key, slot); nodeList != nil {
		nodeList.Remove(order, key)
	}

	if len(onDelete) > 0 && onDelete[0] != nil {
		onDelete[0]()
	}
}

func GetNodeType(order *drift.Order, slot uint64) (types.DLOBNodeType, types.DLOBNodeSubType) {
	isInactiveTriggerOrder := math.MustBeTriggered(order) && !math.IsTriggered(order)

	var nodeType types.DLOBNodeType
	if isInactiveTriggerOrder {
		nodeType = types.NodeTypeTrigger
	} else if math.IsMarketOrder(order) {
		nodeType = types.NodeTypeMarket
	} else if !math.IsRestingLimitOrder(order, slot) {
		nodeType = types.NodeTypeTakingLimit
	} else if order.OraclePriceOffset != 0 {
		nodeType = types.NodeTypeFloatingLimit
	} else {
		nodeType = types.NodeTypeRestingLimit
	}

	var subType types.DLOBNodeSubType
	if isInactiveTriggerOrder {
		subType = types.NodeSubTypeAbove
		if order.TriggerCondition == drift.OrderTriggerCondition_Below {
			subType = types.NodeSubTypeBelow
		}
	} else {
		subType = sideForDirection(order.Direction)
	}
	return nodeType, subType
}

func (p *DLOB) GetListForOrder(
	order *drift.Order,
	slot uint64,
) *NodeList {
	nodeType, subType := GetNodeType(order, slot)
	nodeLists, exists := p.OrderLists[order.MarketType][order.MarketIndex]
	if !exists {
		return nil
	}
	return nodeLists[nodeType][subType]
}

// findListForOrder falls back to a scan of the market's lists when the order
// was classified differently at insert time.
func (p *DLOB) findListForOrder(order *drift.Order, userAccount string, slot uint64) *NodeList {
	nodeList := p.GetListForOrder(order, slot)
	if nodeList != nil && nodeList.Has(order, userAccount) {
		return nodeList
	}
	for _, sides := range p.OrderLists[order.MarketType][order.MarketIndex] {
		for _, candidate := range sides {
			if candidate.Has(order, userAccount) {
				return candidate
			}
		}
	}
	return nil
}

func (p *DLOB) getListForNode(node types.IDLOBNode, slot uint64) *NodeList {
	order := node.GetOrder()
	if node.IsSignedMsg() {
		nodeLists, exists := p.OrderLists[order.MarketType][order.MarketIndex]
		if !exists {
			return nil
		}
		return nodeLists[types.NodeTypeSignedMsg][sideForDirection(order.Direction)]
	}
	return p.findListForOrder(order, node.GetUserAccount(), slot)
}

func (p *DLOB) UpdateRestingLimitOrders(slot uint64) {
	if slot <= p.MaxSlotForRestingLimitOrders {
		return
	}

	p.MaxSlotForRestingLimitOrders = slot

	p.updateRestingLimitOrdersForMarketType(slot, drift.MarketType_Perp)

	p.updateRestingLimitOrdersForMarketType(slot, drift.MarketType_Spot)
}

func (p *DLOB) updateRestingLimitOrdersForMarketType(
	slot uint64,
	marketType drift.MarketType,
) {
	for _, nodeLists := range p.OrderLists[marketType] {
		var nodesToUpdate []types.NodeToUpdate
		for _, side := range []types.DLOBNodeSubType{types.NodeSubTypeAsk, types.NodeSubTypeBid} {
			nodeLists[types.NodeTypeTakingLimit][side].GetGenerator().Each(func(node types.IDLOBNode, key int) bool {
				if math.IsRestingLimitOrder(node.GetOrder(), slot) {
					nodesToUpdate = append(nodesToUpdate, types.NodeToUpdate{
						Side: side,
						Node: node,
					})
				}
				return false
			})
		}

		for _, nodeToUpdate := range nodesToUpdate {
			node := nodeToUpdate.Node
			order := *node.GetOrder()
			nodeLists[types.NodeTypeTakingLimit][nodeToUpdate.Side].Remove(&order, node.GetUserAccount())
			nodeType, _ := GetNodeType(&order, slot)
			nodeLists[nodeType][nodeToUpdate.Side].Insert(
				&order,
				marketType,
				node.GetUserAccount(),
				node.IsProtectedMaker(),
				p.getProtectedMakerParams(marketType, order.MarketIndex),
			)
		}
	}
}

func (p *DLOB) GetOrder(orderId uint32, userAccount solana.PublicKey) (*drift.Order, uint64) {
	userOrders, exists := p.UserOrderMap[userAccount.String()]
	if !exists {
		return nil, 0
	}
	userOrder, exists := userOrders[orderId]
	if !exists {
		return nil, 0
	}
	return userOrder.Order, userOrder.Slot
}

func (p *DLOB) Size() int {
	size := 0
	p.getNodeLists().Each(func(nodeList *NodeList, key int) bool {
		size += nodeList.GetLength()
		return false
	})
	return size
}

// GetDLOBOrders snapshots every order in the book. Signed message orders are
// left out since they do not exist on chain.
func (p *DLOB) GetDLOBOrders() DLOBOrders {
	var dlobOrders DLOBOrders
	p.getNodeLists().Each(func(nodeList *NodeList, key int) bool {
		if nodeList.GetNodeType() == types.NodeTypeSignedMsg {
			return false
		}
		nodeList.GetGenerator().Each(func(node types.IDLOBNode, key int) bool {
			user, err := solana.PublicKeyFromBase58(node.GetUserAccount())
			if err != nil {
				logger.Warnw("skipping order with malformed user account", "user", node.GetUserAccount(), "error", err)
				return false
			}
			order := *node.GetOrder()
			dlobOrders = append(dlobOrders, &DLOBOrder{
				User:  user,
				Order: &order,
			})
			return false
		})
		return false
	})
	return dlobOrders
}

var allNodeListKeys = []struct {
	nodeType types.DLOBNodeType
	subType  types.DLOBNodeSubType
}{
	{types.NodeTypeRestingLimit, types.NodeSubTypeBid},
	{types.NodeTypeRestingLimit, types.NodeSubTypeAsk},
	{types.NodeTypeTakingLimit, types.NodeSubTypeBid},
	{types.NodeTypeTakingLimit, types.NodeSubTypeAsk},
	{types.NodeTypeMarket, types.NodeSubTypeBid},
	{types.NodeTypeMarket, types.NodeSubTypeAsk},
	{types.NodeTypeFloatingLimit, types.NodeSubTypeBid},
	{types.NodeTypeFloatingLimit, types.NodeSubTypeAsk},
	{types.NodeTypeSignedMsg, types.NodeSubTypeBid},
	{types.NodeTypeSignedMsg, types.NodeSubTypeAsk},
	{types.NodeTypeTrigger, types.NodeSubTypeAbove},
	{types.NodeTypeTrigger, types.NodeSubTypeBelow},
}

func (p *DLOB) getNodeLists() *common.Generator[*NodeList, int] {
	return common.NewGenerator(func(yield common.YieldFn[*NodeList, int]) {
		idx := 0
		for _, marketType := range []drift.MarketType{drift.MarketType_Perp, drift.MarketType_Spot} {
			for _, marketNodeLists := range p.OrderLists[marketType] {
				for _, listKey := range allNodeListKeys {
					if yield(marketNodeLists[listKey.nodeType][listKey.subType], idx) {
						return
					}
					idx++
				}
			}
		}
	})
}

func requireOraclePriceData(marketType drift.MarketType, oraclePriceData *oracles.OraclePriceData) {
	if marketType == drift.MarketType_Spot && oraclePriceData == nil {
		panic(ErrOraclePriceDataRequired)
	}
}

func (p *DLOB) GetTakingBids(
	marketIndex uint16,
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn ...types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	return p.getTakingNodes(marketIndex, marketType, types.NodeSubTypeBid, slot, oraclePriceData, filterFcn)
}

func (p *DLOB) GetTakingAsks(
	marketIndex uint16,
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn ...types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	return p.getTakingNodes(marketIndex, marketType, types.NodeSubTypeAsk, slot, oraclePriceData, filterFcn)
}

func (p *DLOB) getTakingNodes(
	marketIndex uint16,
	marketType drift.MarketType,
	side types.DLOBNodeSubType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn []types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	orderLists, exists := p.OrderLists[marketType][marketIndex]
	if !exists {
		return common.EmptyGenerator[types.IDLOBNode, int]()
	}

	p.UpdateRestingLimitOrders(slot)

	generatorList := []*common.Generator[types.IDLOBNode, int]{
		orderLists[types.NodeTypeMarket][side].GetGenerator(),
		orderLists[types.NodeTypeTakingLimit][side].GetGenerator(),
		orderLists[types.NodeTypeSignedMsg][side].GetGenerator(),
	}

	var filter types.DLOBFilterFcn
	if len(filterFcn) > 0 {
		filter = filterFcn[0]
	}
	return p.GetBestNode(
		generatorList,
		oraclePriceData,
		slot,
		func(bestNode types.IDLOBNode, currentNode types.IDLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool {
			return bestNode.GetOrder().Slot <= currentNode.GetOrder().Slot
		},
		filter,
	)
}

type GeneratorItem struct {
	Next      types.IDLOBNode
	Done      bool
	Generator *common.Generator[types.IDLOBNode, int]
}

// GetBestNode merges already sorted generators, yielding the best head each
// step. Market orders always win; otherwise compareFn decides whether the
// current best stays ahead. Filled nodes and nodes of users being liquidated
// are skipped.
func (p *DLOB) GetBestNode(
	generatorList []*common.Generator[types.IDLOBNode, int],
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	compareFn func(types.IDLOBNode, types.IDLOBNode, uint64, *oracles.OraclePriceData) bool,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	return common.NewGenerator(func(yield common.YieldFn[types.IDLOBNode, int]) {
		if len(generatorList) == 0 {
			return
		}
		var generators []*GeneratorItem
		for _, generator := range generatorList {
			nextNode, _, done := generator.Next()
			generators = append(generators, &GeneratorItem{
				Next:      nextNode,
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
			bestGenerator := utils.ArrayReduce(generators, func(bestGenerator *GeneratorItem, currentGenerator *GeneratorItem) *GeneratorItem {
				if currentGenerator.Done {
					return bestGenerator
				}
				if bestGenerator.Done {
					return currentGenerator
				}

				bestValue := bestGenerator.Next
				currentValue := currentGenerator.Next
				if isMarketNode(bestValue) {
					return bestGenerator
				}
				if isMarketNode(currentValue) {
					return currentGenerator
				}
				return utils.TT(compareFn(bestValue, currentValue, slot, oraclePriceData), bestGenerator, currentGenerator)
			})

			if bestGenerator.Done {
				return
			}

			node := bestGenerator.Next
			bestGenerator.Next, _, bestGenerator.Done = bestGenerator.Generator.Next()

			if node.IsBaseFilled() {
				continue
			}
			if p.isUserBeingLiquidated(node) {
				continue
			}
			if filterFcn != nil && !filterFcn(node) {
				continue
			}

			if yield(node, idx) {
				return
			}
			idx++
		}
	})
}

func isMarketNode(node types.IDLOBNode) bool {
	return node.GetOrder() != nil && math.IsMarketOrder(node.GetOrder())
}

func (p *DLOB) isUserBeingLiquidated(node types.IDLOBNode) bool {
	if p.userMap == nil || node.GetOrder() == nil {
		return false
	}
	return p.userMap.IsBeingLiquidated(node.GetUserAccount())
}

// betterPrice reports whether best stays ahead of current. A missing price
// always loses.
func betterPrice(best *big.Int, current *big.Int, ascending bool) bool {
	if current == nil {
		return true
	}
	if best == nil {
		return false
	}
	if ascending {
		return best.Cmp(current) <= 0
	}
	return best.Cmp(current) >= 0
}

func (p *DLOB) GetRestingLimitAsks(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	return p.getRestingLimitNodes(marketIndex, slot, marketType, types.NodeSubTypeAsk, oraclePriceData, filterFcn)
}

func (p *DLOB) GetRestingLimitBids(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	return p.getRestingLimitNodes(marketIndex, slot, marketType, types.NodeSubTypeBid, oraclePriceData, filterFcn)
}

func (p *DLOB) getRestingLimitNodes(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	side types.DLOBNodeSubType,
	oraclePriceData *oracles.OraclePriceData,
	filterFcn types.DLOBFilterFcn,
) *common.Generator[types.IDLOBNode, int] {
	requireOraclePriceData(marketType, oraclePriceData)

	p.UpdateRestingLimitOrders(slot)

	nodeLists, exists := p.OrderLists[marketType][marketIndex]
	if !exists {
		return common.EmptyGenerator[types.IDLOBNode, int]()
	}

	generatorList := []*common.Generator[types.IDLOBNode, int]{
		nodeLists[types.NodeTypeRestingLimit][side].GetGenerator(),
		nodeLists[types.NodeTypeFloatingLimit][side].GetGenerator(),
	}

	ascending := side == types.NodeSubTypeAsk
	return p.GetBestNode(
		generatorList,
		oraclePriceData,
		slot,
		func(bestNode types.IDLOBNode, currentNode types.IDLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool {
			return betterPrice(
				bestNode.GetPrice(oraclePriceData, slot),
				currentNode.GetPrice(oraclePriceData, slot),
				ascending,
			)
		},
		filterFcn,
	)
}

func (p *DLOB) GetAsks(
	marketIndex uint16,
	fallbackAsk *big.Int,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[types.IDLOBNode, int] {
	return p.getSide(marketIndex, fallbackAsk, slot, marketType, types.NodeSubTypeAsk, oraclePriceData)
}

func (p *DLOB) GetBids(
	marketIndex uint16,
	fallbackBid *big.Int,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[types.IDLOBNode, int] {
	return p.getSide(marketIndex, fallbackBid, slot, marketType, types.NodeSubTypeBid, oraclePriceData)
}

// getSide is every taking and resting order of one side plus the vAMM quote.
// Taking orders come first by slot, then everything else by price.
func (p *DLOB) getSide(
	marketIndex uint16,
	fallbackPrice *big.Int,
	slot uint64,
	marketType drift.MarketType,
	side types.DLOBNodeSubType,
	oraclePriceData *oracles.OraclePriceData,
) *common.Generator[types.IDLOBNode, int] {
	requireOraclePriceData(marketType, oraclePriceData)

	generatorList := []*common.Generator[types.IDLOBNode, int]{
		p.getTakingNodes(marketIndex, marketType, side, slot, oraclePriceData, nil),
		p.getRestingLimitNodes(marketIndex, slot, marketType, side, oraclePriceData, nil),
	}
	if marketType == drift.MarketType_Perp && fallbackPrice != nil {
		generatorList = append(generatorList, GetVammNodeGenerator(fallbackPrice))
	}

	ascending := side == types.NodeSubTypeAsk
	return p.GetBestNode(
		generatorList,
		oraclePriceData,
		slot,
		func(bestNode types.IDLOBNode, currentNode types.IDLOBNode, slot uint64, oraclePriceData *oracles.OraclePriceData) bool {
			bestNodeTaking := bestNode.GetOrder() != nil && math.IsTakingOrder(bestNode.GetOrder(), slot)
			currentNodeTaking := currentNode.GetOrder() != nil && math.IsTakingOrder(currentNode.GetOrder(), slot)

			if bestNodeTaking && currentNodeTaking {
				return bestNode.GetOrder().Slot <= currentNode.GetOrder().Slot
			}
			if bestNodeTaking {
				return true
			}
			if currentNodeTaking {
				return false
			}
			return betterPrice(
				bestNode.GetPrice(oraclePriceData, slot),
				currentNode.GetPrice(oraclePriceData, slot),
				ascending,
			)
		},
		nil,
	)
}

func (p *DLOB) GetBestAsk(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *big.Int {
	generator := p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil)
	defer generator.Cancel()
	bestAsk, _, done := generator.Next()
	if done {
		return nil
	}
	return bestAsk.GetPrice(oraclePriceData, slot)
}

func (p *DLOB) GetBestBid(
	marketIndex uint16,
	slot uint64,
	marketType drift.MarketType,
	oraclePriceData *oracles.OraclePriceData,
) *big.Int {
	generator := p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil)
	defer generator.Cancel()
	bestBid, _, done := generator.Next()
	if done {
		return nil
	}
	return bestBid.GetPrice(oraclePriceData, slot)
}

func (p *DLOB) filterTriggerList(
	marketIndex uint16,
	marketType drift.MarketType,
	subType types.DLOBNodeSubType,
	filter func(order *drift.Order) bool,
) *common.Generator[types.IDLOBNode, int] {
	return common.NewGenerator(func(yield common.YieldFn[types.IDLOBNode, int]) {
		marketNodeLists, exists := p.OrderLists[marketType][marketIndex]
		if !exists {
			return
		}
		idx := 0
		marketNodeLists[types.NodeTypeTrigger][subType].GetGenerator().Each(func(node types.IDLOBNode, key int) bool {
			if !filter(node.GetOrder()) {
				return false
			}
			if yield(node, idx) {
				return true
			}
			idx++
			return false
		})
	})
}

// GetStopLosses returns the trigger orders that close a position of the given
// direction at a loss: sells below for longs, buys above for shorts.
func (p *DLOB) GetStopLosses(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[types.IDLOBNode, int] {
	if direction == drift.PositionDirection_Long {
		return p.filterTriggerList(marketIndex, marketType, types.NodeSubTypeBelow, func(order *drift.Order) bool {
			return order.Direction == drift.PositionDirection_Short
		})
	}
	return p.filterTriggerList(marketIndex, marketType, types.NodeSubTypeAbove, func(order *drift.Order) bool {
		return order.Direction == drift.PositionDirection_Long
	})
}

func (p *DLOB) GetStopLossMarkets(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[types.IDLOBNode, int] {
	return filterByOrderType(p.GetStopLosses(marketIndex, marketType, direction), drift.OrderType_TriggerMarket)
}

func (p *DLOB) GetStopLossLimits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[types.IDLOBNode, int] {
	return filterByOrderType(p.GetStopLosses(marketIndex, marketType, direction), drift.OrderType_TriggerLimit)
}

// GetTakeProfits returns the trigger orders that close a position of the
// given direction in profit: sells above for longs, buys below for shorts.
func (p *DLOB) GetTakeProfits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[types.IDLOBNode, int] {
	if direction == drift.PositionDirection_Long {
		return p.filterTriggerList(marketIndex, marketType, types.NodeSubTypeAbove, func(order *drift.Order) bool {
			return order.Direction == drift.PositionDirection_Short
		})
	}
	return p.filterTriggerList(marketIndex, marketType, types.NodeSubTypeBelow, func(order *drift.Order) bool {
		return order.Direction == drift.PositionDirection_Long
	})
}

func (p *DLOB) GetTakeProfitMarkets(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[types.IDLOBNode, int] {
	return filterByOrderType(p.GetTakeProfits(marketIndex, marketType, direction), drift.OrderType_TriggerMarket)
}

func (p *DLOB) GetTakeProfitLimits(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
) *common.Generator[types.IDLOBNode, int] {
	return filterByOrderType(p.GetTakeProfits(marketIndex, marketType, direction), drift.OrderType_TriggerLimit)
}

func filterByOrderType(
	generator *common.Generator[types.IDLOBNode, int],
	orderType drift.OrderType,
) *common.Generator[types.IDLOBNode, int] {
	return common.NewGenerator(func(yield common.YieldFn[types.IDLOBNode, int]) {
		idx := 0
		generator.Each(func(node types.IDLOBNode, key int) bool {
			if node.GetOrder().OrderType != orderType {
				return false
			}
			if yield(node, idx) {
				return true
			}
			idx++
			return false
		})
	})
}

func (p *DLOB) EstimateFillExactBaseAmountInForSide(
	baseAmountIn *big.Int,
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
	dlobSide *common.Generator[types.IDLOBNode, int],
) *big.Int {
	runningSumQuote := utils.BN(0)
	runningSumBase := utils.BN(0)
	dlobSide.Each(func(side types.IDLOBNode, idx int) bool {
		price := side.GetPrice(oraclePriceData, slot)
		if price == nil {
			return false
		}
		baseAmountRemaining := utils.BN(math.RemainingBaseAssetAmount(side.GetOrder()))
		if utils.AddX(runningSumBase, baseAmountRemaining).Cmp(baseAmountIn) >= 0 {
			remainingBase := utils.SubX(baseAmountIn, runningSumBase)
			runningSumBase = utils.AddX(runningSumBase, remainingBase)
			runningSumQuote = utils.AddX(runningSumQuote, utils.MulX(remainingBase, price))
			return true
		}
		runningSumBase = utils.AddX(runningSumBase, baseAmountRemaining)
		runningSumQuote = utils.AddX(runningSumQuote, utils.MulX(baseAmountRemaining, price))
		return false
	})

	return utils.DivX(
		utils.MulX(runningSumQuote, constants.QUOTE_PRECISION),
		utils.MulX(constants.BASE_PRECISION, constants.PRICE_PRECISION),
	)
}

// EstimateFillWithExactBaseAmount
/**
 * @param marketIndex the index of the market
 * @param marketType the type of the market
 * @param baseAmount the base amount in to estimate
 * @param orderDirection the direction of the trade
 * @param slot current slot for estimating dlob node price
 * @param oraclePriceData the oracle price data
 * @returns the estimated quote amount filled: QUOTE_PRECISION
 */
func (p *DLOB) EstimateFillWithExactBaseAmount(
	marketIndex uint16,
	marketType drift.MarketType,
	baseAmount *big.Int,
	orderDirection drift.PositionDirection,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
) *big.Int {
	var side *common.Generator[types.IDLOBNode, int]
	if orderDirection == drift.PositionDirection_Long {
		side = p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil)
	} else {
		side = p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil)
	}
	return p.EstimateFillExactBaseAmountInForSide(baseAmount, oraclePriceData, slot, side)
}

// GetBestMakers returns up to numMakers distinct accounts resting on the
// side of direction, best price first.
func (p *DLOB) GetBestMakers(
	marketIndex uint16,
	marketType drift.MarketType,
	direction drift.PositionDirection,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
	numMakers int,
) []solana.PublicKey {
	var makers []solana.PublicKey
	if numMakers <= 0 {
		return makers
	}
	seen := make(map[string]bool)
	generator := utils.TTF(
		direction == drift.PositionDirection_Long,
		func() *common.Generator[types.IDLOBNode, int] {
			return p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil)
		},
		func() *common.Generator[types.IDLOBNode, int] {
			return p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil)
		},
	)
	generator.Each(func(node types.IDLOBNode, idx int) bool {
		userAccount := node.GetUserAccount()
		if seen[userAccount] {
			return false
		}
		maker, err := solana.PublicKeyFromBase58(userAccount)
		if err != nil {
			return false
		}
		seen[userAccount] = true
		makers = append(makers, maker)
		return len(makers) == numMakers
	})
	return makers
}

// GetL2 aggregates resting orders and any fallback sources into price levels.
func (p *DLOB) GetL2(params types.L2Params) *types.L2OrderBook {
	makerAsks := GetL2GeneratorFromDLOBNodes(
		p.GetRestingLimitAsks(params.MarketIndex, params.Slot, params.MarketType, params.OraclePriceData, nil),
		params.OraclePriceData,
		params.Slot,
	)
	askGenerators := []*common.Generator[*types.L2Level, int]{makerAsks}
	for _, fallback := range params.FallbackL2Generators {
		askGenerators = append(askGenerators, fallback.GetL2Asks())
	}
	asks := CreateL2Levels(
		MergeL2LevelGenerators(askGenerators, func(a *types.L2Level, b *types.L2Level) bool {
			return a.Price.Cmp(b.Price) < 0
		}),
		params.Depth,
	)

	makerBids := GetL2GeneratorFromDLOBNodes(
		p.GetRestingLimitBids(params.MarketIndex, params.Slot, params.MarketType, params.OraclePriceData, nil),
		params.OraclePriceData,
		params.Slot,
	)
	bidGenerators := []*common.Generator[*types.L2Level, int]{makerBids}
	for _, fallback := range params.FallbackL2Generators {
		bidGenerators = append(bidGenerators, fallback.GetL2Bids())
	}
	bids := CreateL2Levels(
		MergeL2LevelGenerators(bidGenerators, func(a *types.L2Level, b *types.L2Level) bool {
			return a.Price.Cmp(b.Price) > 0
		}),
		params.Depth,
	)

	return &types.L2OrderBook{
		Asks: asks,
		Bids: bids,
		Slot: params.Slot,
	}
}

// GetL3 lists every resting order individually, best price first.
func (p *DLOB) GetL3(
	marketIndex uint16,
	marketType drift.MarketType,
	slot uint64,
	oraclePriceData *oracles.OraclePriceData,
) *types.L3OrderBook {
	toLevels := func(generator *common.Generator[types.IDLOBNode, int]) []*types.L3Level {
		levels := []*types.L3Level{}
		generator.Each(func(node types.IDLOBNode, key int) bool {
			maker, err := solana.PublicKeyFromBase58(node.GetUserAccount())
			if err != nil {
				logger.Warnw("skipping l3 level with malformed maker", "user", node.GetUserAccount(), "error", err)
				return false
			}
			levels = append(levels, &types.L3Level{
				Price:   node.GetPrice(oraclePriceData, slot),
				Size:    utils.BN(math.RemainingBaseAssetAmount(node.GetOrder())),
				Maker:   maker,
				OrderId: node.GetOrder().OrderId,
			})
			return false
		})
		return levels
	}

	return &types.L3OrderBook{
		Asks: toLevels(p.GetRestingLimitAsks(marketIndex, slot, marketType, oraclePriceData, nil)),
		Bids: toLevels(p.GetRestingLimitBids(marketIndex, slot, marketType, oraclePriceData, nil)),
		Slot: slot,
	}
}
