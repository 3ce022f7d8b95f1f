package drift

import (
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
)

// OrderSize is the borsh encoded length of an Order.
const OrderSize = 8*6 + 8*3 + 4 + 4 + 2 + 1*11

func (obj Order) MarshalWithEncoder(encoder *bin.Encoder) (err error) {
	for _, v := range []uint64{
		obj.Slot,
		obj.Price,
		obj.BaseAssetAmount,
		obj.BaseAssetAmountFilled,
		obj.QuoteAssetAmountFilled,
		obj.TriggerPrice,
	} {
		if err = encoder.WriteUint64(v, binary.LittleEndian); err != nil {
			return err
		}
	}
	for _, v := range []int64{obj.AuctionStartPrice, obj.AuctionEndPrice, obj.MaxTs} {
		if err = encoder.WriteInt64(v, binary.LittleEndian); err != nil {
			return err
		}
	}
	if err = encoder.WriteInt32(obj.OraclePriceOffset, binary.LittleEndian); err != nil {
		return err
	}
	if err = encoder.WriteUint32(obj.OrderId, binary.LittleEndian); err != nil {
		return err
	}
	if err = encoder.WriteUint16(obj.MarketIndex, binary.LittleEndian); err != nil {
		return err
	}
	for _, v := range []uint8{
		uint8(obj.Status),
		uint8(obj.OrderType),
		uint8(obj.MarketType),
		obj.UserOrderId,
		uint8(obj.ExistingPositionDirection),
		uint8(obj.Direction),
	} {
		if err = encoder.WriteUint8(v); err != nil {
			return err
		}
	}
	for _, v := range []bool{obj.ReduceOnly, obj.PostOnly, obj.ImmediateOrCancel} {
		if err = encoder.WriteBool(v); err != nil {
			return err
		}
	}
	if err = encoder.WriteUint8(uint8(obj.TriggerCondition)); err != nil {
		return err
	}
	return encoder.WriteUint8(obj.AuctionDuration)
}

func (obj *Order) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	for _, v := range []*uint64{
		&obj.Slot,
		&obj.Price,
		&obj.BaseAssetAmount,
		&obj.BaseAssetAmountFilled,
		&obj.QuoteAssetAmountFilled,
		&obj.TriggerPrice,
	} {
		if *v, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
			return err
		}
	}
	for _, v := range []*int64{&obj.AuctionStartPrice, &obj.AuctionEndPrice, &obj.MaxTs} {
		if *v, err = decoder.ReadInt64(binary.LittleEndian); err != nil {
			return err
		}
	}
	if obj.OraclePriceOffset, err = decoder.ReadInt32(binary.LittleEndian); err != nil {
		return err
	}
	if obj.OrderId, err = decoder.ReadUint32(binary.LittleEndian); err != nil {
		return err
	}
	if obj.MarketIndex, err = decoder.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	var enums [6]uint8
	for idx := range enums {
		if enums[idx], err = decoder.ReadUint8(); err != nil {
			return err
		}
	}
	obj.Status = OrderStatus(enums[0])
	obj.OrderType = OrderType(enums[1])
	obj.MarketType = MarketType(enums[2])
	obj.UserOrderId = enums[3]
	obj.ExistingPositionDirection = PositionDirection(enums[4])
	obj.Direction = PositionDirection(enums[5])
	for _, v := range []*bool{&obj.ReduceOnly, &obj.PostOnly, &obj.ImmediateOrCancel} {
		if *v, err = decoder.ReadBool(); err != nil {
			return err
		}
	}
	triggerCondition, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	obj.TriggerCondition = OrderTriggerCondition(triggerCondition)
	obj.AuctionDuration, err = decoder.ReadUint8()
	return err
}
