package orderSubscriber

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/accounts"
	"github.com/drift-labs/protocol-v2-sub007/dlob"
	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	driftlib "github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/lib/event"
)

// OrderSubscriber keeps the latest snapshot of every user with an open order,
// fed by the caller's account subscription. It builds DLOBs from those
// snapshots and answers the DLOB's authority and liquidation lookups.
type OrderSubscriber struct {
	userAccounts      map[string]*accounts.DataAndSlot[*driftlib.User]
	eventEmitter      *event.EventEmitter
	perpMarketIndexes []uint16
	spotMarketIndexes []uint16
	mostRecentSlot    uint64
	mxState           *sync.RWMutex
}

func CreateOrderSubscriber(config OrderSubscriberConfig) *OrderSubscriber {
	eventEmitter := config.EventEmitter
	if eventEmitter == nil {
		eventEmitter = event.CreateEventEmitter()
	}
	return &OrderSubscriber{
		userAccounts:      make(map[string]*accounts.DataAndSlot[*driftlib.User]),
		eventEmitter:      eventEmitter,
		perpMarketIndexes: config.PerpMarketIndexes,
		spotMarketIndexes: config.SpotMarketIndexes,
		mxState:           new(sync.RWMutex),
	}
}

func (p *OrderSubscriber) GetEventEmitter() *event.EventEmitter {
	return p.eventEmitter
}

func (p *OrderSubscriber) GetUserAccounts() map[string]*accounts.DataAndSlot[*driftlib.User] {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	userAccounts := make(map[string]*accounts.DataAndSlot[*driftlib.User], len(p.userAccounts))
	for key, dataAndSlot := range p.userAccounts {
		userAccounts[key] = dataAndSlot
	}
	return userAccounts
}

func hasOpenOrder(userAccount *driftlib.User) bool {
	for idx := range userAccount.Orders {
		if userAccount.Orders[idx].Status == driftlib.OrderStatus_Open {
			return true
		}
	}
	return false
}

// TryUpdateUserAccount stores userAccount unless a newer snapshot is already
// held. Orders placed after the previous snapshot are reported through
// EventOrderCreated; users without open orders are dropped.
func (p *OrderSubscriber) TryUpdateUserAccount(
	key string,
	userAccount *driftlib.User,
	slot uint64,
) {
	pubkey, err := solana.PublicKeyFromBase58(key)
	if err != nil || userAccount == nil {
		return
	}

	p.mxState.Lock()
	p.mostRecentSlot = max(slot, p.mostRecentSlot)
	slotAndUserAccount, exists := p.userAccounts[key]
	if exists && slotAndUserAccount.Slot > slot {
		p.mxState.Unlock()
		p.eventEmitter.Emit(EventUpdateReceived, pubkey, slot)
		return
	}

	var filterSlot uint64
	if exists {
		filterSlot = slotAndUserAccount.Slot
	}
	var newOrders []*driftlib.Order
	for idx := range userAccount.Orders {
		order := userAccount.Orders[idx]
		if order.Status == driftlib.OrderStatus_Open && order.Slot > filterSlot && order.Slot <= slot {
			newOrders = append(newOrders, &order)
		}
	}

	if hasOpenOrder(userAccount) {
		p.userAccounts[key] = &accounts.DataAndSlot[*driftlib.User]{
			Data:   userAccount,
			Slot:   slot,
			Pubkey: pubkey,
		}
	} else {
		delete(p.userAccounts, key)
	}
	p.mxState.Unlock()

	p.eventEmitter.Emit(EventUpdateReceived, pubkey, slot)
	p.eventEmitter.Emit(EventUserUpdated, pubkey, userAccount, slot)
	if len(newOrders) > 0 {
		p.eventEmitter.Emit(EventOrderCreated, pubkey, userAccount, newOrders, slot)
	}
}

func (p *OrderSubscriber) GetUserAuthority(key string) solana.PublicKey {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	dataAndSlot, exists := p.userAccounts[key]
	if !exists {
		return solana.PublicKey{}
	}
	return dataAndSlot.Data.Authority
}

func (p *OrderSubscriber) IsBeingLiquidated(key string) bool {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	dataAndSlot, exists := p.userAccounts[key]
	return exists && dataAndSlot.Data.IsBeingLiquidated()
}

// GetDLOB builds a fresh book from every held snapshot.
func (p *OrderSubscriber) GetDLOB(slot uint64) (types.IDLOB, error) {
	var orders []*types.BulkOrder
	p.mxState.RLock()
	for _, dataAndSlot := range p.userAccounts {
		userAccount := dataAndSlot.Data
		isProtectedMaker := userAccount.IsProtectedMaker()
		for idx := range userAccount.Orders {
			if userAccount.Orders[idx].Status != driftlib.OrderStatus_Open {
				continue
			}
			orders = append(orders, &types.BulkOrder{
				Order:            &userAccount.Orders[idx],
				UserAccount:      dataAndSlot.Pubkey,
				Slot:             slot,
				IsProtectedMaker: isProtectedMaker,
			})
		}
	}
	p.mxState.RUnlock()

	newDLOB := dlob.NewDLOB(p.perpMarketIndexes, p.spotMarketIndexes)
	newDLOB.SetUserMap(p)
	newDLOB.InsertOrderBulk(orders)
	newDLOB.Initialized = true
	return newDLOB, nil
}

func (p *OrderSubscriber) GetSlot() uint64 {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.mostRecentSlot
}
