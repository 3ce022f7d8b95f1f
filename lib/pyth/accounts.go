package pyth

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/go-errors/errors"
	"github.com/shopspring/decimal"
)

// Magic is the 32-bit number prefixed on each account.
const Magic = uint32(0xa1b2c3d4)

// V2 identifies the version 2 data format stored in an account.
const V2 = uint32(2)

const (
	AccountTypeUnknown = uint32(iota)
	AccountTypeMapping
	AccountTypeProduct
	AccountTypePrice
)

var (
	ErrInvalidAccount  = errors.Errorf("invalid pyth account")
	ErrNotPriceAccount = errors.Errorf("not a pyth price account")
)

// AccountHeader is the 16-byte header at the beginning of each account type.
type AccountHeader struct {
	Magic       uint32
	Version     uint32
	AccountType uint32
	// size of the account including the header
	Size uint32
}

func (h AccountHeader) Valid() bool {
	return h.Magic == Magic && h.Version == V2 && h.Size < 65536
}

// Ema is an exponentially-weighted moving average.
type Ema struct {
	ValueComponent int64
	Numerator      int64
	Denominator    int64
}

func (p *Ema) GetValue(exponent int32) decimal.Decimal {
	return decimal.New(p.ValueComponent, exponent)
}

// PriceInfo is a price and confidence at a specific slot, either one
// publisher's contribution or the aggregate.
type PriceInfo struct {
	PriceComponent      int64
	ConfidenceComponent uint64
	Status              uint32
	CorporateAction     uint32
	PublishSlot         uint64
}

// Value returns the scaled price and confidence. ok is false unless the
// price is trading.
func (p *PriceInfo) Value(exponent int32) (price decimal.Decimal, conf decimal.Decimal, ok bool) {
	price = decimal.New(p.PriceComponent, exponent)
	conf = decimal.New(int64(p.ConfidenceComponent), exponent)
	ok = p.Status == PriceStatusTrading
	return
}

const (
	PriceStatusUnknown = uint32(iota)
	PriceStatusTrading
	PriceStatusHalted
	PriceStatusAuction
)

type PriceComponent struct {
	Publisher solana.PublicKey
	Aggregate PriceInfo
	Latest    PriceInfo
}

// PriceAccount is the on-chain layout of a V2 price feed.
type PriceAccount struct {
	AccountHeader
	PriceType                   uint32
	Exponent                    int32
	NumComponentPrices          uint32
	NumQuoters                  uint32
	LastSlot                    uint64
	ValidSlot                   uint64
	Twap                        Ema
	Twac                        Ema
	Drv1Component               int64
	MinPublishers               uint8
	Drv2                        uint8
	Drv3                        int16
	Drv4                        int32
	ProductAccountKey           solana.PublicKey
	NextPriceAccountKey         solana.PublicKey
	PreviousSlot                uint64
	PreviousPriceComponent      int64
	PreviousConfidenceComponent uint64
	Drv5Component               int64
	Aggregate                   PriceInfo
	PriceComponents             [32]PriceComponent
}

// UnmarshalBinary decodes the price account from the on-chain format.
func (p *PriceAccount) UnmarshalBinary(buf []byte) error {
	decoder := bin.NewBinDecoder(buf)
	if err := decoder.Decode(p); err != nil {
		return errors.WrapPrefix(ErrInvalidAccount, err.Error(), 0)
	}
	if !p.AccountHeader.Valid() {
		return ErrInvalidAccount
	}
	if p.AccountType != AccountTypePrice {
		return ErrNotPriceAccount
	}
	return nil
}
