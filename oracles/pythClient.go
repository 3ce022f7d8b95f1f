package oracles

import (
	"math/big"

	"github.com/go-errors/errors"
	"github.com/shopspring/decimal"

	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/lib/pyth"
	"github.com/drift-labs/protocol-v2-sub007/oracles/types"
)

var ErrPriceNotTrading = errors.Errorf("oracle price is not trading")

// PythClient turns raw pyth price accounts into OraclePriceData. multiple
// scales the price for markets quoted per 1K or 1M units.
type PythClient struct {
	multiple   *big.Int
	stableCoin bool
}

func CreatePythClient(multiple *big.Int, stableCoin bool) *PythClient {
	if multiple == nil {
		multiple = big.NewInt(1)
	}
	return &PythClient{
		multiple:   multiple,
		stableCoin: stableCoin,
	}
}

func (p *PythClient) convertPythPrice(value decimal.Decimal) *big.Int {
	return value.
		Shift(constants.PRICE_PRECISION_EXP).
		Mul(decimal.NewFromBigInt(p.multiple, 0)).
		BigInt()
}

func (p *PythClient) GetOraclePriceDataFromBuffer(buffer []byte) (*types.OraclePriceData, error) {
	var priceAccount pyth.PriceAccount
	if err := priceAccount.UnmarshalBinary(buffer); err != nil {
		return nil, err
	}
	price, confidence, ok := priceAccount.Aggregate.Value(priceAccount.Exponent)
	if !ok {
		return nil, ErrPriceNotTrading
	}

	minPublishers := min(priceAccount.NumComponentPrices, 3)
	oraclePriceData := &types.OraclePriceData{
		Price:                           p.convertPythPrice(price),
		Slot:                            priceAccount.LastSlot,
		Confidence:                      p.convertPythPrice(confidence),
		Twap:                            p.convertPythPrice(priceAccount.Twap.GetValue(priceAccount.Exponent)),
		TwapConfidence:                  p.convertPythPrice(priceAccount.Twac.GetValue(priceAccount.Exponent)),
		HasSufficientNumberOfDataPoints: priceAccount.NumQuoters >= minPublishers,
	}
	if p.stableCoin {
		oraclePriceData.Price = types.GetStableCoinPrice(oraclePriceData.Price, oraclePriceData.Confidence)
	}
	return oraclePriceData, nil
}
