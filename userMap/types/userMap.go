package types

import (
	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/accounts"
	"github.com/drift-labs/protocol-v2-sub007/common"
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
)

type UserStatus struct {
	LastOrdersHash [16]byte
	LastUpdated    int64
	UpdatedCount   int64
	UpdateRate     int64
}

type IUser interface {
	GetUserAccountPublicKey() solana.PublicKey
	GetUserAccount() *drift.User
}

// IUserLookup is what the DLOB needs from a user index while matching.
type IUserLookup interface {
	GetUserAuthority(key string) solana.PublicKey
	IsBeingLiquidated(key string) bool
}

type IUserMap interface {
	IUserLookup
	AddPubkey(
		userAccountPublicKey solana.PublicKey,
		userAccount *drift.User,
		slot uint64,
	)
	Has(key string) bool
	Get(key string) IUser
	GetWithSlot(key string) *accounts.DataAndSlot[IUser]
	GetUserStatus(key string) *UserStatus
	Values() *common.Generator[IUser, int]
	Entries() *common.Generator[IUser, string]
	Size() int
	GetUniqueAuthorities(filterCriteria *UserAccountFilterCriteria) []solana.PublicKey
	GetSlot() uint64
}
