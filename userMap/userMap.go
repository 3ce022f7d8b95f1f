package userMap

import (
	"bytes"
	"crypto/md5"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/accounts"
	"github.com/drift-labs/protocol-v2-sub007/common"
	driftlib "github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/lib/event"
	"github.com/drift-labs/protocol-v2-sub007/userMap/types"
)

const (
	EventUserAccountUpdated = "userAccountUpdated"
	// emitted with (key string, *drift.User, slot uint64)
	EventUserOrderUpdated = "userOrderUpdated"
)

type User struct {
	userAccountPublicKey solana.PublicKey
	userAccount          *driftlib.User
}

func (p *User) GetUserAccountPublicKey() solana.PublicKey {
	return p.userAccountPublicKey
}

func (p *User) GetUserAccount() *driftlib.User {
	return p.userAccount
}

// UserMap is an in-memory index of user accounts fed by whatever account
// subscription the caller runs.
type UserMap struct {
	userMap        map[string]*accounts.DataAndSlot[types.IUser]
	statusMap      map[string]*types.UserStatus
	eventEmitter   *event.EventEmitter
	includeIdle    bool
	mostRecentSlot uint64
	mxState        *sync.RWMutex
	mxHashmap      *sync.Mutex
}

func CreateUserMap(config types.UserMapConfig) *UserMap {
	eventEmitter := config.EventEmitter
	if eventEmitter == nil {
		eventEmitter = event.CreateEventEmitter()
	}
	return &UserMap{
		userMap:      make(map[string]*accounts.DataAndSlot[types.IUser]),
		statusMap:    make(map[string]*types.UserStatus),
		eventEmitter: eventEmitter,
		includeIdle:  config.IncludeIdle,
		mxState:      new(sync.RWMutex),
		mxHashmap:    new(sync.Mutex),
	}
}

func (p *UserMap) GetEventEmitter() *event.EventEmitter {
	return p.eventEmitter
}

func (p *UserMap) AddPubkey(
	userAccountPublicKey solana.PublicKey,
	userAccount *driftlib.User,
	slot uint64,
) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	p.addPubkey(userAccountPublicKey, userAccount, slot)
}

func (p *UserMap) addPubkey(
	userAccountPublicKey solana.PublicKey,
	userAccount *driftlib.User,
	slot uint64,
) {
	p.userMap[userAccountPublicKey.String()] = &accounts.DataAndSlot[types.IUser]{
		Data: &User{
			userAccountPublicKey: userAccountPublicKey,
			userAccount:          userAccount,
		},
		Slot:   slot,
		Pubkey: userAccountPublicKey,
	}
	p.mostRecentSlot = max(slot, p.mostRecentSlot)
}

func (p *UserMap) Has(key string) bool {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	_, exists := p.userMap[key]
	return exists
}

func (p *UserMap) Get(key string) types.IUser {
	userAndSlot := p.GetWithSlot(key)
	if userAndSlot != nil {
		return userAndSlot.Data
	}
	return nil
}

func (p *UserMap) GetWithSlot(key string) *accounts.DataAndSlot[types.IUser] {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	userAndSlot, exists := p.userMap[key]
	if exists {
		return userAndSlot
	}
	return nil
}

func (p *UserMap) GetUserStatus(key string) *types.UserStatus {
	defer p.mxHashmap.Unlock()
	p.mxHashmap.Lock()
	userStatus, exists := p.statusMap[key]
	if exists {
		return userStatus
	}
	return nil
}

func (p *UserMap) GetUserAuthority(key string) solana.PublicKey {
	user := p.Get(key)
	if user == nil || user.GetUserAccount() == nil {
		return solana.PublicKey{}
	}
	return user.GetUserAccount().Authority
}

func (p *UserMap) IsBeingLiquidated(key string) bool {
	user := p.Get(key)
	if user == nil || user.GetUserAccount() == nil {
		return false
	}
	return user.GetUserAccount().IsBeingLiquidated()
}

func (p *UserMap) snapshot() []*accounts.DataAndSlot[types.IUser] {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	users := make([]*accounts.DataAndSlot[types.IUser], 0, len(p.userMap))
	for _, user := range p.userMap {
		users = append(users, user)
	}
	return users
}

func (p *UserMap) Values() *common.Generator[types.IUser, int] {
	return common.NewGenerator(func(yield common.YieldFn[types.IUser, int]) {
		for idx, user := range p.snapshot() {
			if yield(user.Data, idx) {
				break
			}
		}
	})
}

func (p *UserMap) Entries() *common.Generator[types.IUser, string] {
	return common.NewGenerator(func(yield common.YieldFn[types.IUser, string]) {
		for _, user := range p.snapshot() {
			if yield(user.Data, user.Pubkey.String()) {
				break
			}
		}
	})
}

func (p *UserMap) Size() int {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return len(p.userMap)
}

func hasOpenOrder(userAccount *driftlib.User) bool {
	for idx := range userAccount.Orders {
		if userAccount.Orders[idx].Status == driftlib.OrderStatus_Open {
			return true
		}
	}
	return false
}

func (p *UserMap) GetUniqueAuthorities(
	filterCriteria *types.UserAccountFilterCriteria,
) []solana.PublicKey {
	userAuths := make(map[solana.PublicKey]bool)
	var userAuthKeys []solana.PublicKey
	for _, user := range p.snapshot() {
		userAccount := user.Data.GetUserAccount()
		if filterCriteria != nil && filterCriteria.HasOpenOrders && !hasOpenOrder(userAccount) {
			continue
		}
		if !userAuths[userAccount.Authority] {
			userAuths[userAccount.Authority] = true
			userAuthKeys = append(userAuthKeys, userAccount.Authority)
		}
	}
	return userAuthKeys
}

// UpdateUserAccount stores a newer snapshot of a user and emits
// EventUserOrderUpdated when its order array changed. Older slots are ignored.
func (p *UserMap) UpdateUserAccount(
	key string,
	userAccount *driftlib.User,
	slot uint64,
) {
	p.mxState.Lock()
	userWithSlot, exists := p.userMap[key]
	if exists && slot < userWithSlot.Slot {
		p.mxState.Unlock()
		return
	}
	if !exists && !p.includeIdle && !hasOpenOrder(userAccount) {
		p.mostRecentSlot = max(slot, p.mostRecentSlot)
		p.mxState.Unlock()
		return
	}
	p.addPubkey(solana.MPK(key), userAccount, slot)
	p.mxState.Unlock()

	p.eventEmitter.Emit(EventUserAccountUpdated, key, userAccount, slot)
	if p.updateStatus(key, getOrderHash(userAccount)) {
		p.eventEmitter.Emit(EventUserOrderUpdated, key, userAccount, slot)
	}
}

func (p *UserMap) Remove(key string) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	delete(p.userMap, key)
	p.mxHashmap.Lock()
	delete(p.statusMap, key)
	p.mxHashmap.Unlock()
}

func getOrderHash(userAccount *driftlib.User) [16]byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBorshEncoder(buf)
	for idx := range userAccount.Orders {
		if err := userAccount.Orders[idx].MarshalWithEncoder(encoder); err != nil {
			return [16]byte{}
		}
	}
	return md5.Sum(buf.Bytes())
}

func (p *UserMap) updateStatus(userAccountKey string, ordersHash [16]byte) bool {
	defer p.mxHashmap.Unlock()
	p.mxHashmap.Lock()
	userStatus, exists := p.statusMap[userAccountKey]
	nowTs := time.Now().UnixMilli()
	if !exists {
		p.statusMap[userAccountKey] = &types.UserStatus{
			LastOrdersHash: ordersHash,
			LastUpdated:    nowTs,
		}
		return true
	}
	if userStatus.LastOrdersHash == ordersHash {
		return false
	}
	duration := nowTs - userStatus.LastUpdated
	updatedCount := userStatus.UpdatedCount
	userStatus.LastOrdersHash = ordersHash
	userStatus.LastUpdated = nowTs
	if updatedCount < 100 {
		userStatus.UpdatedCount++
	}
	if updatedCount == 0 {
		userStatus.UpdateRate = duration
	} else {
		userStatus.UpdateRate = (userStatus.UpdateRate*updatedCount + duration) / (updatedCount + 1)
	}
	return true
}

func (p *UserMap) UpdateLatestSlot(slot uint64) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	p.mostRecentSlot = max(slot, p.mostRecentSlot)
}

func (p *UserMap) GetSlot() uint64 {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.mostRecentSlot
}
