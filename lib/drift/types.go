package drift

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type MarketType uint8

const (
	MarketType_Spot MarketType = iota
	MarketType_Perp
)

func (value MarketType) String() string {
	switch value {
	case MarketType_Spot:
		return "Spot"
	case MarketType_Perp:
		return "Perp"
	default:
		return ""
	}
}

type OrderStatus uint8

const (
	OrderStatus_Init OrderStatus = iota
	OrderStatus_Open
	OrderStatus_Filled
	OrderStatus_Canceled
)

func (value OrderStatus) String() string {
	switch value {
	case OrderStatus_Init:
		return "Init"
	case OrderStatus_Open:
		return "Open"
	case OrderStatus_Filled:
		return "Filled"
	case OrderStatus_Canceled:
		return "Canceled"
	default:
		return ""
	}
}

type OrderType uint8

const (
	OrderType_Market OrderType = iota
	OrderType_Limit
	OrderType_TriggerMarket
	OrderType_TriggerLimit
	OrderType_Oracle
)

func (value OrderType) String() string {
	switch value {
	case OrderType_Market:
		return "Market"
	case OrderType_Limit:
		return "Limit"
	case OrderType_TriggerMarket:
		return "TriggerMarket"
	case OrderType_TriggerLimit:
		return "TriggerLimit"
	case OrderType_Oracle:
		return "Oracle"
	default:
		return ""
	}
}

type PositionDirection uint8

const (
	PositionDirection_Long PositionDirection = iota
	PositionDirection_Short
)

func (value PositionDirection) String() string {
	switch value {
	case PositionDirection_Long:
		return "Long"
	case PositionDirection_Short:
		return "Short"
	default:
		return ""
	}
}

type OrderTriggerCondition uint8

const (
	OrderTriggerCondition_Above OrderTriggerCondition = iota
	OrderTriggerCondition_Below
	OrderTriggerCondition_TriggeredAbove
	OrderTriggerCondition_TriggeredBelow
)

func (value OrderTriggerCondition) String() string {
	switch value {
	case OrderTriggerCondition_Above:
		return "Above"
	case OrderTriggerCondition_Below:
		return "Below"
	case OrderTriggerCondition_TriggeredAbove:
		return "TriggeredAbove"
	case OrderTriggerCondition_TriggeredBelow:
		return "TriggeredBelow"
	default:
		return ""
	}
}

type OrderAction uint8

const (
	OrderAction_Place OrderAction = iota
	OrderAction_Cancel
	OrderAction_Fill
	OrderAction_Trigger
	OrderAction_Expire
)

type SwapDirection uint8

const (
	SwapDirection_Add SwapDirection = iota
	SwapDirection_Remove
)

type AssetType uint8

const (
	AssetType_Quote AssetType = iota
	AssetType_Base
)

type ExchangeStatus uint8

const (
	ExchangeStatus_DepositPaused   ExchangeStatus = 1
	ExchangeStatus_WithdrawPaused  ExchangeStatus = 2
	ExchangeStatus_AmmPaused       ExchangeStatus = 4
	ExchangeStatus_FillPaused      ExchangeStatus = 8
	ExchangeStatus_LiqPaused       ExchangeStatus = 16
	ExchangeStatus_FundingPaused   ExchangeStatus = 32
	ExchangeStatus_SettlePnlPaused ExchangeStatus = 64
)

type PerpOperation uint8

const (
	PerpOperation_UpdateFunding PerpOperation = 1
	PerpOperation_AmmFill       PerpOperation = 2
	PerpOperation_Fill          PerpOperation = 4
	PerpOperation_SettlePnl     PerpOperation = 8
)

type SpotOperation uint8

const (
	SpotOperation_UpdateCumulativeInterest SpotOperation = 1
	SpotOperation_Fill                     SpotOperation = 2
	SpotOperation_Deposit                  SpotOperation = 4
	SpotOperation_Withdraw                 SpotOperation = 8
)

type UserStatus uint8

const (
	UserStatus_BeingLiquidated UserStatus = 1
	UserStatus_Bankrupt        UserStatus = 2
	UserStatus_ReduceOnly      UserStatus = 4
	UserStatus_AdvancedLp      UserStatus = 8
	UserStatus_ProtectedMaker  UserStatus = 16
)

type Order struct {
	Slot                      uint64
	Price                     uint64
	BaseAssetAmount           uint64
	BaseAssetAmountFilled     uint64
	QuoteAssetAmountFilled    uint64
	TriggerPrice              uint64
	AuctionStartPrice         int64
	AuctionEndPrice           int64
	MaxTs                     int64
	OraclePriceOffset         int32
	OrderId                   uint32
	MarketIndex               uint16
	Status                    OrderStatus
	OrderType                 OrderType
	MarketType                MarketType
	UserOrderId               uint8
	ExistingPositionDirection PositionDirection
	Direction                 PositionDirection
	ReduceOnly                bool
	PostOnly                  bool
	ImmediateOrCancel         bool
	TriggerCondition          OrderTriggerCondition
	AuctionDuration           uint8
}

type User struct {
	Authority    solana.PublicKey
	SubAccountId uint16
	Status       uint8
	Orders       [32]Order
}

func (p *User) IsBeingLiquidated() bool {
	return p.Status&(uint8(UserStatus_BeingLiquidated)|uint8(UserStatus_Bankrupt)) > 0
}

func (p *User) IsProtectedMaker() bool {
	return p.Status&uint8(UserStatus_ProtectedMaker) > 0
}

type FeeTier struct {
	MakerRebateNumerator   uint32
	MakerRebateDenominator uint32
}

type FeeStructure struct {
	FeeTiers [10]FeeTier
}

type State struct {
	ExchangeStatus         uint8
	MinPerpAuctionDuration uint8
	PerpFeeStructure       FeeStructure
	SpotFeeStructure       FeeStructure
}

type Amm struct {
	BaseAssetReserve    bin.Uint128
	QuoteAssetReserve   bin.Uint128
	SqrtK               bin.Uint128
	PegMultiplier       bin.Uint128
	MinBaseAssetReserve bin.Uint128
	MaxBaseAssetReserve bin.Uint128
	OrderStepSize       uint64
	OrderTickSize       uint64
	MinOrderSize        uint64
	LongSpread          uint32
	ShortSpread         uint32
}

type PerpMarket struct {
	MarketIndex      uint16
	PausedOperations uint8
	FeeAdjustment    int16
	Amm              Amm
}

type SpotMarket struct {
	MarketIndex      uint16
	PausedOperations uint8
}

type OrderRecord struct {
	Ts    int64
	User  solana.PublicKey
	Order Order
}

type OrderActionRecord struct {
	Ts                                        int64
	Action                                    OrderAction
	MarketIndex                               uint16
	MarketType                                MarketType
	Taker                                     *solana.PublicKey
	TakerOrderId                              *uint32
	TakerOrderCumulativeBaseAssetAmountFilled *uint64
	Maker                                     *solana.PublicKey
	MakerOrderId                              *uint32
	MakerOrderCumulativeBaseAssetAmountFilled *uint64
}
