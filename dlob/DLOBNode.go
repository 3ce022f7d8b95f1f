package dlob

import (
	"math/big"

	"github.com/go-errors/errors"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/math"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
)

type DLOBNode struct {
	Order       *drift.Order
	HaveFilled  bool
	HaveTrigger bool
	UserAccount string
}

type OrderNode struct {
	DLOBNode
	nodeType types.DLOBNodeType
	key      nodeKey

	sortValue            int64
	tryFillCount         int64
	isProtectedMaker     bool
	protectedMakerParams *types2.ProtectedMakerParams
}

type VammNode struct {
	DLOBNode
	price *big.Int
}

// CreateNode copies the order, so later changes to the caller's order do not
// leak into the book.
func CreateNode(
	nodeType types.DLOBNodeType,
	order *drift.Order,
	userAccount string,
	isProtectedMaker bool,
	protectedMakerParams *types2.ProtectedMakerParams,
) *OrderNode {
	orderCopy := *order
	orderNode := &OrderNode{
		DLOBNode: DLOBNode{
			Order:       &orderCopy,
			UserAccount: userAccount,
		},
		nodeType:             nodeType,
		isProtectedMaker:     isProtectedMaker,
		protectedMakerParams: protectedMakerParams,
	}
	orderNode.sortValue = sortValueForNodeType(nodeType, &orderCopy)
	return orderNode
}

func sortValueForNodeType(nodeType types.DLOBNodeType, order *drift.Order) int64 {
	switch nodeType {
	case types.NodeTypeTakingLimit, types.NodeTypeMarket, types.NodeTypeSignedMsg:
		return int64(order.Slot)
	case types.NodeTypeRestingLimit:
		return int64(order.Price)
	case types.NodeTypeFloatingLimit:
		return int64(order.OraclePriceOffset)
	case types.NodeTypeTrigger:
		return int64(order.TriggerPrice)
	}
	panic(errors.WrapPrefix(ErrUnknownNodeType, nodeType.String(), 1))
}

func (p *OrderNode) GetPrice(
	oraclePriceData *oracles.OraclePriceData,
	slot uint64,
) *big.Int {
	limitPrice := math.GetLimitPrice(p.Order, oraclePriceData, slot, nil)
	if p.isProtectedMaker {
		return math.ApplyProtectedMakerParams(limitPrice, p.Order.Direction, p.protectedMakerParams)
	}
	return limitPrice
}

func (p *OrderNode) GetNodeType() types.DLOBNodeType {
	return p.nodeType
}

func (p *OrderNode) GetSortValue() int64 {
	return p.sortValue
}

func (p *OrderNode) IsBaseFilled() bool {
	return p.Order.BaseAssetAmountFilled >= p.Order.BaseAssetAmount
}

func (p *OrderNode) IsVammNode() bool {
	return false
}

func (p *OrderNode) GetOrder() *drift.Order {
	return p.Order
}

func (p *OrderNode) GetUserAccount() string {
	return p.UserAccount
}

func (p *OrderNode) IsSignedMsg() bool {
	return p.nodeType == types.NodeTypeSignedMsg
}

func (p *OrderNode) IsProtectedMaker() bool {
	return p.isProtectedMaker
}

func (p *OrderNode) IsHaveFilled() bool {
	return p.HaveFilled
}

func (p *OrderNode) IsHaveTrigger() bool {
	return p.HaveTrigger
}

func (p *OrderNode) SetTrigger(trigger bool) {
	p.HaveTrigger = trigger
}

func (p *OrderNode) TryFill() {
	p.tryFillCount++
}

func (p *OrderNode) ResetTryFill() {
	p.tryFillCount = 0
}

func (p *OrderNode) GetTryFill() int64 {
	return p.tryFillCount
}

func (p *VammNode) GetPrice(oraclePriceData *oracles.OraclePriceData, slot uint64) *big.Int {
	return p.price
}

func (p *VammNode) GetNodeType() types.DLOBNodeType {
	return types.NodeTypeVamm
}

func (p *VammNode) GetSortValue() int64 {
	return 0
}

func (p *VammNode) IsVammNode() bool {
	return true
}

func (p *VammNode) IsBaseFilled() bool {
	return false
}

func (p *VammNode) GetOrder() *drift.Order {
	return nil
}

func (p *VammNode) GetUserAccount() string {
	return ""
}

func (p *VammNode) IsSignedMsg() bool {
	return false
}

func (p *VammNode) IsProtectedMaker() bool {
	return false
}

func (p *VammNode) IsHaveFilled() bool {
	return false
}

func (p *VammNode) IsHaveTrigger() bool {
	return false
}

func (p *VammNode) SetTrigger(bool) {}

func (p *VammNode) TryFill() {}

func (p *VammNode) ResetTryFill() {}

func (p *VammNode) GetTryFill() int64 {
	return 0
}

func GetVammNodeGenerator(price *big.Int) *common.Generator[types.IDLOBNode, int] {
	if price == nil {
		return common.EmptyGenerator[types.IDLOBNode, int]()
	}
	return common.NewGenerator(func(yield common.YieldFn[types.IDLOBNode, int]) {
		yield(&VammNode{price: price}, 0)
	})
}
