package drift

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"
	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test --run TestOrderCodec

func TestOrderCodec(t *testing.T) {
	order := Order{
		Slot:                  301,
		Price:                 101_500_000,
		BaseAssetAmount:       5_000_000_000,
		BaseAssetAmountFilled: 1_000_000_000,
		TriggerPrice:          99_000_000,
		AuctionStartPrice:     -20,
		AuctionEndPrice:       40,
		MaxTs:                 1_700_000_000,
		OraclePriceOffset:     -15_000,
		OrderId:               77,
		MarketIndex:           3,
		Status:                OrderStatus_Open,
		OrderType:             OrderType_TriggerLimit,
		MarketType:            MarketType_Perp,
		UserOrderId:           9,
		Direction:             PositionDirection_Short,
		PostOnly:              true,
		TriggerCondition:      OrderTriggerCondition_TriggeredBelow,
		AuctionDuration:       10,
	}

	buf := new(bytes.Buffer)
	require.NoError(t, order.MarshalWithEncoder(bin.NewBorshEncoder(buf)))
	assert.Equal(t, OrderSize, buf.Len())

	var decoded Order
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBorshDecoder(buf.Bytes())))
	assert.Equal(t, order, decoded, spew.Sdump(decoded))
}

func TestOrderDecodeTruncated(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Order{OrderId: 1}.MarshalWithEncoder(bin.NewBorshEncoder(buf)))

	var decoded Order
	err := decoded.UnmarshalWithDecoder(bin.NewBorshDecoder(buf.Bytes()[:OrderSize-4]))
	assert.Error(t, err)
}

func TestUserIsBeingLiquidated(t *testing.T) {
	user := &User{}
	assert.False(t, user.IsBeingLiquidated())
	user.Status = uint8(UserStatus_Bankrupt)
	assert.True(t, user.IsBeingLiquidated())
	user.Status = uint8(UserStatus_ReduceOnly)
	assert.False(t, user.IsBeingLiquidated())
}
