package accounts

import (
	"github.com/gagliardetto/solana-go"
)

type DataAndSlot[T any] struct {
	Data   T
	Slot   uint64
	Pubkey solana.PublicKey
}
