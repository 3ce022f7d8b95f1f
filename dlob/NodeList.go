package dlob

import (
	"fmt"

	"github.com/huandu/skiplist"

	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
)

type SortDirection int

const (
	SortDirectionAsc SortDirection = iota
	SortDirectionDesc
)

func GetOrderSignature(
	orderId uint32,
	userAccount string,
) string {
	return fmt.Sprintf("%s-%d", userAccount, orderId)
}

type nodeKey struct {
	sortValue int64
	slot      uint64
	seq       uint64
}

// NodeList keeps the orders of one (market, node type, side) bucket in book
// order. Ties on sort value go to the earlier slot, then to the earlier insert.
type NodeList struct {
	nodeType      types.DLOBNodeType
	sortDirection SortDirection
	list          *skiplist.SkipList
	nodeMap       map[string]*OrderNode
	seq           uint64
}

func CreateNodeList(nodeType types.DLOBNodeType, sortDirection SortDirection) *NodeList {
	return &NodeList{
		nodeType:      nodeType,
		sortDirection: sortDirection,
		list:          skiplist.New(skiplist.GreaterThanFunc(keyComparator(sortDirection))),
		nodeMap:       make(map[string]*OrderNode),
	}
}

func keyComparator(sortDirection SortDirection) func(lhs, rhs any) int {
	return func(lhs, rhs any) int {
		l := lhs.(nodeKey)
		r := rhs.(nodeKey)
		if l.sortValue != r.sortValue {
			result := 1
			if l.sortValue < r.sortValue {
				result = -1
			}
			if sortDirection == SortDirectionDesc {
				return -result
			}
			return result
		}
		if l.slot != r.slot {
			if l.slot < r.slot {
				return -1
			}
			return 1
		}
		if l.seq < r.seq {
			return -1
		} else if l.seq > r.seq {
			return 1
		}
		return 0
	}
}

func (p *NodeList) GetNodeType() types.DLOBNodeType {
	return p.nodeType
}

func (p *NodeList) GetLength() int {
	return len(p.nodeMap)
}

func (p *NodeList) Clear() {
	p.list.Init()
	p.nodeMap = make(map[string]*OrderNode)
	p.seq = 0
}

func (p *NodeList) Insert(
	order *drift.Order,
	marketType drift.MarketType,
	userAccount string,
	isProtectedMaker bool,
	protectedMakerParams *types2.ProtectedMakerParams,
) {
	if order.Status == drift.OrderStatus_Init {
		return
	}
	orderSignature := GetOrderSignature(order.OrderId, userAccount)
	if _, exists := p.nodeMap[orderSignature]; exists {
		return
	}

	newNode := CreateNode(p.nodeType, order, userAccount, isProtectedMaker, protectedMakerParams)
	p.seq++
	newNode.key = nodeKey{
		sortValue: newNode.GetSortValue(),
		slot:      order.Slot,
		seq:       p.seq,
	}
	p.nodeMap[orderSignature] = newNode
	p.list.Set(newNode.key, newNode)
}

// Update overwrites the stored order in place. The node keeps its position
// even if a sort relevant field changed.
func (p *NodeList) Update(
	order *drift.Order,
	userAccount string,
) {
	node, exists := p.nodeMap[GetOrderSignature(order.OrderId, userAccount)]
	if !exists {
		return
	}
	if node.Order.BaseAssetAmountFilled != order.BaseAssetAmountFilled {
		node.ResetTryFill()
	}
	*node.Order = *order
	node.HaveFilled = false
}

func (p *NodeList) ResetTryFill(
	order *drift.Order,
	userAccount string,
) {
	node, exists := p.nodeMap[GetOrderSignature(order.OrderId, userAccount)]
	if exists {
		node.ResetTryFill()
	}
}

func (p *NodeList) TryFill(
	order *drift.Order,
	userAccount string,
) {
	node, exists := p.nodeMap[GetOrderSignature(order.OrderId, userAccount)]
	if exists {
		node.TryFill()
	}
}

func (p *NodeList) Remove(
	order *drift.Order,
	userAccount string,
) {
	orderSignature := GetOrderSignature(order.OrderId, userAccount)
	node, exists := p.nodeMap[orderSignature]
	if !exists {
		return
	}
	p.list.Remove(node.key)
	delete(p.nodeMap, orderSignature)
}

// GetGenerator walks the list from the head. Removing the node that was just
// yielded does not end the walk.
func (p *NodeList) GetGenerator() *common.Generator[types.IDLOBNode, int] {
	return common.NewGenerator(func(yield common.YieldFn[types.IDLOBNode, int]) {
		idx := 0
		elem := p.list.Front()
		for elem != nil {
			next := elem.Next()
			if yield(elem.Value.(*OrderNode), idx) {
				return
			}
			idx++
			elem = next
		}
	})
}

func (p *NodeList) Has(order *drift.Order, userAccount string) bool {
	_, exists := p.nodeMap[GetOrderSignature(order.OrderId, userAccount)]
	return exists
}

func (p *NodeList) Get(orderSignature string) *OrderNode {
	v, exists := p.nodeMap[orderSignature]
	if exists {
		return v
	}
	return nil
}
