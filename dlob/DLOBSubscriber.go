package dlob

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/drift-labs/protocol-v2-sub007/dlob/types"
	"github.com/drift-labs/protocol-v2-sub007/events"
	driftlib "github.com/drift-labs/protocol-v2-sub007/lib/drift"
	"github.com/drift-labs/protocol-v2-sub007/lib/event"
	"github.com/drift-labs/protocol-v2-sub007/math"
	oracles "github.com/drift-labs/protocol-v2-sub007/oracles/types"
	types2 "github.com/drift-labs/protocol-v2-sub007/types"
	"github.com/drift-labs/protocol-v2-sub007/userMap"
)

const (
	// emitted with (types.IDLOB) after every rebuild
	EventDLOBUpdate = "update"
	// emitted with (error) when a rebuild fails
	EventDLOBError = "error"
	// emitted with (*events.WrappedEvent) after it was applied to the book
	EventDLOBOrderEvent = "orderEvent"

	defaultUpdateFrequency = time.Second
)

// GetL2Params selects a market's aggregated book for DLOBSubscriber.GetL2.
type GetL2Params struct {
	MarketIndex uint16
	MarketType  driftlib.MarketType
	// <= 0 means unbounded
	Depth int
	// adds vAMM levels for perp markets
	IncludeVamm bool
	// number of vAMM levels per side, defaults to Depth
	NumVammOrders        int
	FallbackL2Generators []*types.L2OrderBookGenerator
}

// DLOBSubscriber keeps a DLOB rebuilt from its source on a fixed interval and
// applies user order updates to it in between.
type DLOBSubscriber struct {
	dlobSource       types.IDLOBSource
	slotSource       types.ISlotSource
	marketDataSource types.IMarketDataSource
	updateFrequency  time.Duration
	dlob             types.IDLOB
	eventEmitter     *event.EventEmitter
	metrics          *subscriberMetrics
	isSubscribed     bool
	isStarting       bool
	cancel           func()
	done             chan struct{}
	mxState          *sync.RWMutex
}

func CreateDLOBSubscriber(config types.DLOBSubscriptionConfig) (*DLOBSubscriber, error) {
	if config.DlobSource == nil || config.SlotSource == nil {
		return nil, ErrSourceRequired
	}
	updateFrequency := config.UpdateFrequency
	if updateFrequency <= 0 {
		updateFrequency = defaultUpdateFrequency
	}
	return &DLOBSubscriber{
		dlobSource:       config.DlobSource,
		slotSource:       config.SlotSource,
		marketDataSource: config.MarketDataSource,
		updateFrequency:  updateFrequency,
		eventEmitter:     event.CreateEventEmitter(),
		metrics:          newSubscriberMetrics(config.Registerer),
		mxState:          new(sync.RWMutex),
	}, nil
}

func (p *DLOBSubscriber) GetEventEmitter() *event.EventEmitter {
	return p.eventEmitter
}

func (p *DLOBSubscriber) GetSlotSource() types.ISlotSource {
	return p.slotSource
}

func (p *DLOBSubscriber) GetDlobSource() types.IDLOBSource {
	return p.dlobSource
}

// Subscribe builds the first book synchronously, then rebuilds it every
// update interval until ctx is done or Unsubscribe is called. Calls made while
// another Subscribe is running or has succeeded return nil without starting a
// second rebuild loop.
func (p *DLOBSubscriber) Subscribe(ctx context.Context) error {
	p.mxState.Lock()
	if p.isSubscribed || p.isStarting {
		p.mxState.Unlock()
		return nil
	}
	p.isStarting = true
	p.mxState.Unlock()

	if err := p.UpdateDLOB(); err != nil {
		p.mxState.Lock()
		p.isStarting = false
		p.mxState.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mxState.Lock()
	p.cancel = cancel
	p.done = done
	p.isSubscribed = true
	p.isStarting = false
	p.mxState.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.updateFrequency)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.UpdateDLOB(); err != nil {
					logger.Warnw("dlob rebuild failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// UpdateDLOB replaces the current book with a fresh one from the source. The
// previous book is kept when the source fails.
func (p *DLOBSubscriber) UpdateDLOB() error {
	startTime := time.Now()
	dlob, err := p.dlobSource.GetDLOB(p.slotSource.GetSlot())
	if err != nil {
		p.metrics.rebuildErrors.Inc()
		p.eventEmitter.Emit(EventDLOBError, err)
		return err
	}
	p.metrics.rebuildLatency.Observe(time.Since(startTime).Seconds())
	p.metrics.orders.Set(float64(dlob.Size()))

	p.mxState.Lock()
	p.dlob = dlob
	p.mxState.Unlock()

	p.eventEmitter.Emit(EventDLOBUpdate, dlob)
	return nil
}

func (p *DLOBSubscriber) GetDLOB() types.IDLOB {
	defer p.mxState.RUnlock()
	p.mxState.RLock()
	return p.dlob
}

// Do runs fn against the current book with exclusive access. Reads of the
// book move matured auction orders into the resting lists, so even read-only
// callers need the write lock. fn must not keep the book past its return.
func (p *DLOBSubscriber) Do(fn func(dlob types.IDLOB)) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	if p.dlob == nil {
		return
	}
	fn(p.dlob)
}

// UpdateByUser applies a user's latest order array to the current book.
func (p *DLOBSubscriber) UpdateByUser(userAccountKey solana.PublicKey, userAccount *driftlib.User, slot uint64) {
	defer p.mxState.Unlock()
	p.mxState.Lock()
	if p.dlob == nil {
		return
	}
	p.dlob.UpdateByUser(userAccountKey, userAccount, slot)
	p.metrics.userUpdates.Inc()
}

// HandleEvents applies order and order action records to the current book in
// the given order. Other event types are ignored.
func (p *DLOBSubscriber) HandleEvents(wrappedEvents []*events.WrappedEvent) {
	var handled []*events.WrappedEvent
	p.mxState.Lock()
	if p.dlob == nil {
		p.mxState.Unlock()
		return
	}
	for _, wrappedEvent := range wrappedEvents {
		switch wrappedEvent.EventType {
		case events.EventTypeOrderRecord:
			record, ok := wrappedEvent.Data.(*driftlib.OrderRecord)
			if !ok {
				continue
			}
			p.dlob.HandleOrderRecord(record, wrappedEvent.Slot)
		case events.EventTypeOrderActionRecord:
			record, ok := wrappedEvent.Data.(*driftlib.OrderActionRecord)
			if !ok {
				continue
			}
			p.dlob.HandleOrderActionRecord(record, wrappedEvent.Slot)
		default:
			continue
		}
		handled = append(handled, wrappedEvent)
	}
	p.mxState.Unlock()

	for _, wrappedEvent := range handled {
		p.eventEmitter.Emit(EventDLOBOrderEvent, wrappedEvent)
	}
}

// ListenToUserMap forwards a user map's order updates into the book and
// returns the listener id for eventEmitter.Off.
func (p *DLOBSubscriber) ListenToUserMap(eventEmitter *event.EventEmitter) string {
	return eventEmitter.On(userMap.EventUserOrderUpdated, func(data ...interface{}) {
		if len(data) < 3 {
			return
		}
		key, ok := data[0].(string)
		if !ok {
			return
		}
		userAccount, ok := data[1].(*driftlib.User)
		if !ok || userAccount == nil {
			return
		}
		slot, ok := data[2].(uint64)
		if !ok {
			return
		}
		userAccountKey, err := solana.PublicKeyFromBase58(key)
		if err != nil {
			logger.Warnw("user order update with malformed key", "key", key, "error", err)
			return
		}
		p.UpdateByUser(userAccountKey, userAccount, slot)
	})
}

func (p *DLOBSubscriber) getOraclePriceData(
	marketIndex uint16,
	marketType driftlib.MarketType,
) *oracles.OraclePriceData {
	if marketType == driftlib.MarketType_Spot {
		return p.marketDataSource.GetOraclePriceDataForSpotMarket(marketIndex)
	}
	return p.marketDataSource.GetOraclePriceDataForPerpMarket(marketIndex)
}

// GetL2
/**
 * Aggregated book for a market at the current slot, priced off the market data
 * source's oracle. Perp markets can include vAMM liquidity.
 */
func (p *DLOBSubscriber) GetL2(params GetL2Params) *types.L2OrderBook {
	if p.marketDataSource == nil {
		return nil
	}
	oraclePriceData := p.getOraclePriceData(params.MarketIndex, params.MarketType)
	if oraclePriceData == nil {
		return nil
	}

	fallbackL2Generators := params.FallbackL2Generators
	if params.IncludeVamm && params.MarketType == driftlib.MarketType_Perp {
		perpMarket := p.marketDataSource.GetPerpMarketAccount(params.MarketIndex)
		if perpMarket != nil {
			numOrders := params.NumVammOrders
			if numOrders <= 0 {
				numOrders = params.Depth
			}
			fallbackL2Generators = append(
				[]*types.L2OrderBookGenerator{
					GetVammL2Generator(perpMarket, numOrders, types.DEFAULT_TOP_OF_BOOK_QUOTE_AMOUNTS),
				},
				fallbackL2Generators...,
			)
		}
	}

	var l2 *types.L2OrderBook
	p.Do(func(dlob types.IDLOB) {
		l2 = dlob.GetL2(types.L2Params{
			MarketIndex:          params.MarketIndex,
			MarketType:           params.MarketType,
			Slot:                 p.slotSource.GetSlot(),
			OraclePriceData:      oraclePriceData,
			Depth:                params.Depth,
			FallbackL2Generators: fallbackL2Generators,
		})
	})
	return l2
}

func (p *DLOBSubscriber) GetL3(
	marketIndex uint16,
	marketType driftlib.MarketType,
) *types.L3OrderBook {
	if p.marketDataSource == nil {
		return nil
	}
	oraclePriceData := p.getOraclePriceData(marketIndex, marketType)
	if oraclePriceData == nil {
		return nil
	}
	var l3 *types.L3OrderBook
	p.Do(func(dlob types.IDLOB) {
		l3 = dlob.GetL3(marketIndex, marketType, p.slotSource.GetSlot(), oraclePriceData)
	})
	return l3
}

// FindNodesToFill
/**
 * Fillable orders of a market at the current slot. Perp markets use the
 * vAMM's spread-adjusted bid and ask as fallback liquidity. Returns nil until
 * the market data source has an oracle price and the state account.
 */
func (p *DLOBSubscriber) FindNodesToFill(
	marketIndex uint16,
	marketType driftlib.MarketType,
	ts int64,
) []*types.NodeToFill {
	if p.marketDataSource == nil {
		return nil
	}
	oraclePriceData := p.getOraclePriceData(marketIndex, marketType)
	stateAccount := p.marketDataSource.GetStateAccount()
	if oraclePriceData == nil || stateAccount == nil {
		return nil
	}

	var fallbackBid, fallbackAsk *big.Int
	var marketAccount *types2.MarketAccount
	if marketType == driftlib.MarketType_Perp {
		perpMarket := p.marketDataSource.GetPerpMarketAccount(marketIndex)
		if perpMarket != nil {
			fallbackBid, fallbackAsk = math.CalculateBidAskPrice(&perpMarket.Amm)
			marketAccount = &types2.MarketAccount{PerpMarketAccount: perpMarket}
		}
	}

	var nodesToFill []*types.NodeToFill
	p.Do(func(dlob types.IDLOB) {
		nodesToFill = dlob.FindNodesToFill(
			marketIndex,
			fallbackBid,
			fallbackAsk,
			p.slotSource.GetSlot(),
			ts,
			marketType,
			oraclePriceData,
			stateAccount,
			marketAccount,
		)
	})
	return nodesToFill
}

func (p *DLOBSubscriber) Unsubscribe() {
	p.mxState.Lock()
	if !p.isSubscribed {
		p.mxState.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.isSubscribed = false
	p.mxState.Unlock()

	cancel()
	<-done
}
