package dlob

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/go-errors/errors"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
)

type DLOBOrder struct {
	User  solana.PublicKey
	Order *drift.Order
}

type DLOBOrders []*DLOBOrder

const dlobOrderSize = solana.PublicKeyLength + drift.OrderSize

// MarshalWithEncoder writes a u32 count followed by (user, order) pairs.
func (obj DLOBOrders) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	if err = encoder.WriteUint32(uint32(len(obj)), binary.LittleEndian); err != nil {
		return err
	}
	for _, dlobOrder := range obj {
		if dlobOrder == nil || dlobOrder.Order == nil {
			return errors.WrapPrefix(ErrInvalidDLOBOrders, "nil order", 0)
		}
		if err = encoder.WriteBytes(dlobOrder.User[:], false); err != nil {
			return err
		}
		if err = dlobOrder.Order.MarshalWithEncoder(encoder); err != nil {
			return err
		}
	}
	return nil
}

func (obj *DLOBOrders) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	count, err := decoder.ReadUint32(binary.LittleEndian)
	if err != nil {
		return errors.WrapPrefix(ErrInvalidDLOBOrders, err.Error(), 0)
	}
	if int(count)*dlobOrderSize > decoder.Remaining() {
		return errors.WrapPrefix(ErrInvalidDLOBOrders, "truncated", 0)
	}
	dlobOrders := make(DLOBOrders, 0, count)
	for idx := uint32(0); idx < count; idx++ {
		user, err := decoder.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return errors.WrapPrefix(ErrInvalidDLOBOrders, err.Error(), 0)
		}
		order := &drift.Order{}
		if err = order.UnmarshalWithDecoder(decoder); err != nil {
			return errors.WrapPrefix(ErrInvalidDLOBOrders, err.Error(), 0)
		}
		dlobOrders = append(dlobOrders, &DLOBOrder{
			User:  solana.PublicKeyFromBytes(user),
			Order: order,
		})
	}
	*obj = dlobOrders
	return nil
}

// EncodeDLOBOrders serializes a snapshot from GetDLOBOrders.
func EncodeDLOBOrders(dlobOrders DLOBOrders) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := dlobOrders.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeDLOBOrders(data []byte) (DLOBOrders, error) {
	var dlobOrders DLOBOrders
	if err := dlobOrders.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, err
	}
	return dlobOrders, nil
}
