package math

import (
	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/types"
)

func ExchangePaused(state *drift.State) bool {
	return state.ExchangeStatus != 0
}

func FillPaused(
	state *drift.State,
	market *types.MarketAccount,
) bool {
	if state.ExchangeStatus&uint8(drift.ExchangeStatus_FillPaused) == uint8(drift.ExchangeStatus_FillPaused) {
		return true
	}
	if market == nil {
		return false
	}
	if market.PerpMarketAccount != nil {
		return IsOperationPaused(market.PerpMarketAccount.PausedOperations, uint8(drift.PerpOperation_Fill))
	} else if market.SpotMarketAccount != nil {
		return IsOperationPaused(market.SpotMarketAccount.PausedOperations, uint8(drift.SpotOperation_Fill))
	}
	return false
}

func AmmPaused(state *drift.State, market *types.MarketAccount) bool {
	if state.ExchangeStatus&uint8(drift.ExchangeStatus_AmmPaused) == uint8(drift.ExchangeStatus_AmmPaused) {
		return true
	}
	if market != nil && market.PerpMarketAccount != nil {
		return IsOperationPaused(
			market.PerpMarketAccount.PausedOperations,
			uint8(drift.PerpOperation_AmmFill),
		)
	}
	return false
}

func IsOperationPaused(pausedOperations uint8, operation uint8) bool {
	return pausedOperations&operation > 0
}
