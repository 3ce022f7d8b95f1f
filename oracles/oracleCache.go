package oracles

import (
	"sync"

	"github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/oracles/types"
)

// QuoteSpotMarketIndex is the USDC spot market, priced at exactly 1.
const QuoteSpotMarketIndex = uint16(0)

// OracleCache holds the latest oracle prices and market accounts pushed by
// the caller's account subscriptions. It serves the DLOB subscriber's market
// data lookups.
type OracleCache struct {
	perpOracles   map[uint16]*types.OraclePriceData
	spotOracles   map[uint16]*types.OraclePriceData
	stableMarkets map[uint16]bool
	perpMarkets   map[uint16]*drift.PerpMarket
	state         *drift.State
	mxState       *sync.RWMutex
}

func CreateOracleCache() *OracleCache {
	return &OracleCache{
		perpOracles:   make(map[uint16]*types.OraclePriceData),
		spotOracles:   make(map[uint16]*types.OraclePriceData),
		stableMarkets: make(map[uint16]bool),
		perpMarkets:   make(map[uint16]*drift.PerpMarket),
		mxState:       new(sync.RWMutex),
	}
}

// SetStableSpotMarket marks a spot market whose price snaps to 1 when within
// its confidence.
func (p *OracleCache) SetStableSpotMarket(marketIndex uint16) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	p.stableMarkets[marketIndex] = true
}

func (p *OracleCache) isNewer(current *types.OraclePriceData, oraclePriceData *types.OraclePriceData) bool {
	return current == nil || current.Slot <= oraclePriceData.Slot
}

// UpdatePerpOracle stores oraclePriceData unless a later slot is already held.
func (p *OracleCache) UpdatePerpOracle(marketIndex uint16, oraclePriceData *types.OraclePriceData) bool {
	if oraclePriceData == nil || oraclePriceData.Price == nil {
		return false
	}
	defer p.mxState.Unlock()
	p.mxState.Lock()
	if !p.isNewer(p.perpOracles[marketIndex], oraclePriceData) {
		return false
	}
	p.perpOracles[marketIndex] = oraclePriceData
	return true
}

func (p *OracleCache) UpdateSpotOracle(marketIndex uint16, oraclePriceData *types.OraclePriceData) bool {
	if oraclePriceData == nil || oraclePriceData.Price == nil {
		return false
	}
	defer p.mxState.Unlock()
	p.mxState.Lock()
	if !p.isNewer(p.spotOracles[marketIndex], oraclePriceData) {
		return false
	}
	if p.stableMarkets[marketIndex] && oraclePriceData.Confidence != nil {
		stable := *oraclePriceData
		stable.Price = types.GetStableCoinPrice(oraclePriceData.Price, oraclePriceData.Confidence)
		oraclePriceData = &stable
	}
	p.spotOracles[marketIndex] = oraclePriceData
	return true
}

// UpdatePerpOracleAccount decodes a raw price account with client and stores
// the result as UpdatePerpOracle does.
func (p *OracleCache) UpdatePerpOracleAccount(marketIndex uint16, client *PythClient, data []byte) (bool, error) {
	oraclePriceData, err := client.GetOraclePriceDataFromBuffer(data)
	if err != nil {
		return false, err
	}
	return p.UpdatePerpOracle(marketIndex, oraclePriceData), nil
}

func (p *OracleCache) UpdateSpotOracleAccount(marketIndex uint16, client *PythClient, data []byte) (bool, error) {
	oraclePriceData, err := client.GetOraclePriceDataFromBuffer(data)
	if err != nil {
		return false, err
	}
	return p.UpdateSpotOracle(marketIndex, oraclePriceData), nil
}

func (p *OracleCache) UpdatePerpMarket(perpMarket *drift.PerpMarket) {
	if perpMarket == nil {
		return
	}
	defer p.mxState.Unlock()
	p.mxState.Lock()
	p.perpMarkets[perpMarket.MarketIndex] = perpMarket
}

func (p *OracleCache) UpdateState(state *drift.State) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	p.state = state
}

func (p *OracleCache) GetOraclePriceDataForPerpMarket(marketIndex uint16) *types.OraclePriceData {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.perpOracles[marketIndex]
}

func (p *OracleCache) GetOraclePriceDataForSpotMarket(marketIndex uint16) *types.OraclePriceData {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	oraclePriceData, exists := p.spotOracles[marketIndex]
	if !exists && marketIndex == QuoteSpotMarketIndex {
		quote := types.QUOTE_ORACLE_PRICE_DATA
		return &quote
	}
	return oraclePriceData
}

func (p *OracleCache) GetPerpMarketAccount(marketIndex uint16) *drift.PerpMarket {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.perpMarkets[marketIndex]
}

func (p *OracleCache) GetStateAccount() *drift.State {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.state
}
