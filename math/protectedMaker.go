package math

import (
	"math/big"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/types"
	"github.com/drift-labs/protocol-v2-sub007/utils"
)

// ApplyProtectedMakerParams pushes a protected maker's limit price away from
// the book: down for bids, up for asks. The offset is at least eight ticks and
// never more than 5% of the limit price.
func ApplyProtectedMakerParams(
	limitPrice *big.Int,
	direction drift.PositionDirection,
	params *types.ProtectedMakerParams,
) *big.Int {
	if limitPrice == nil || params == nil {
		return limitPrice
	}

	tickSize := params.TickSize
	if tickSize == nil {
		tickSize = utils.BN(0)
	}
	minOffset := utils.MulX(tickSize, utils.BN(8))
	var bpsDivisor *big.Int
	if params.LimitPriceDivisor > 0 {
		bpsDivisor = utils.BN(10000 / int(params.LimitPriceDivisor))
	} else {
		bpsDivisor = utils.BN(1000)
	}

	offset := utils.Max(utils.DivX(limitPrice, bpsDivisor), minOffset)
	if params.DynamicOffset != nil {
		offset = utils.Max(offset, params.DynamicOffset)
	}
	offset = utils.Min(offset, utils.DivX(limitPrice, utils.BN(20)))

	if direction == drift.PositionDirection_Long {
		return utils.Max(utils.SubX(limitPrice, offset), utils.BN(0))
	}
	return utils.AddX(limitPrice, offset)
}
