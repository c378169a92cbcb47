// Package strategy defines the Strategy interface for trading strategies,
// the Base type carrying the order-placement API, signal aggregation,
// timers, and a Registry for managing multiple strategy implementations.
package strategy

import (
	"math"
	"time"

	"altair/internal/broker"
	"altair/internal/domain"
	"altair/internal/feed"
	"altair/internal/indicator"
	"altair/internal/params"
	"altair/internal/sizer"
)

// Strategy is the interface the engine drives. Implementations embed Base,
// which provides no-op defaults for every hook and the trading API.
//
// Lifecycle per run: Init, Start, then per bar one of PreNext (during
// warm-up), NextStart (first ready bar), or Next, plus the Notify* hooks,
// and finally Stop.
type Strategy interface {
	// Init creates indicators and registers signals and timers.
	Init() error

	// Start runs before the first bar.
	Start()

	// PreNext runs on bars before the minimum period is reached.
	PreNext()

	// NextStart runs once on the first bar with all indicators ready. The
	// default implementation calls Next.
	NextStart()

	// Next runs on every ready bar.
	Next()

	// PreNextOpen, NextStartOpen, and NextOpen are the cheat-on-open
	// variants, invoked before broker matching when the bar policy allows
	// trading on the open.
	PreNextOpen()
	NextStartOpen()
	NextOpen()

	// Stop runs after the last bar.
	Stop()

	// NotifyOrder fires on every order status change.
	NotifyOrder(o *domain.Order)

	// NotifyTrade fires when a trade opens or closes.
	NotifyTrade(t *domain.Trade)

	// NotifyCashValue fires once per bar with the broker's cash and value.
	NotifyCashValue(cash, value float64)

	// NotifyFund fires once per bar in fund mode.
	NotifyFund(cash, value, nav, shares float64)

	// NotifyTimer fires for each triggered timer.
	NotifyTimer(t *Timer, when time.Time)

	// Params returns the strategy's parameter store; the optimizer applies
	// grid assignments through it before Init runs.
	Params() *params.Params

	// base exposes the embedded Base to the engine for wiring.
	base() *Base
}

// Base supplies default hook implementations and the trading API. Embed it
// in every strategy.
type Base struct {
	self Strategy

	bk     *broker.BacktestBroker
	datas  []feed.Feed
	szr    sizer.Sizer
	inds   []indicator.Indicator
	prms   *params.Params
	tmrs   TimerManager
	sgnls  Group
	minper int

	barIndex  int
	barLength int
}

func (b *Base) base() *Base { return b }

// Init implements Strategy.
func (b *Base) Init() error { return nil }

// Start implements Strategy.
func (b *Base) Start() {}

// PreNext implements Strategy.
func (b *Base) PreNext() {}

// NextStart implements Strategy; by default it forwards to Next once.
func (b *Base) NextStart() {
	if b.self != nil {
		b.self.Next()
	}
}

// Next implements Strategy.
func (b *Base) Next() {}

// PreNextOpen implements Strategy.
func (b *Base) PreNextOpen() {}

// NextStartOpen implements Strategy; by default it forwards to NextOpen.
func (b *Base) NextStartOpen() {
	if b.self != nil {
		b.self.NextOpen()
	}
}

// NextOpen implements Strategy.
func (b *Base) NextOpen() {}

// Stop implements Strategy.
func (b *Base) Stop() {}

// NotifyOrder implements Strategy.
func (b *Base) NotifyOrder(*domain.Order) {}

// NotifyTrade implements Strategy.
func (b *Base) NotifyTrade(*domain.Trade) {}

// NotifyCashValue implements Strategy.
func (b *Base) NotifyCashValue(cash, value float64) {}

// NotifyFund implements Strategy.
func (b *Base) NotifyFund(cash, value, nav, shares float64) {}

// NotifyTimer implements Strategy.
func (b *Base) NotifyTimer(*Timer, time.Time) {}

// ---------------------------------------------------------------------------
// Wiring (called by Cerebro)
// ---------------------------------------------------------------------------

// Setup wires the strategy into its run context. self must be the outer
// strategy value so default hooks dispatch to overridden methods.
func (b *Base) Setup(self Strategy, bk *broker.BacktestBroker) {
	b.self = self
	b.bk = bk
	if b.minper < 1 {
		b.minper = 1
	}
	if b.prms == nil {
		b.prms = params.New()
	}
}

// AddData registers a data feed; the first becomes data0.
func (b *Base) AddData(f feed.Feed) { b.datas = append(b.datas, f) }

// SetSizer installs the sizing policy used when orders carry no size.
func (b *Base) SetSizer(s sizer.Sizer) { b.szr = s }

// SetBar records the loop position (called by Cerebro each bar).
func (b *Base) SetBar(index, length int) {
	b.barIndex = index
	b.barLength = length
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Params returns the strategy's parameter store.
func (b *Base) Params() *params.Params {
	if b.prms == nil {
		b.prms = params.New()
	}
	return b.prms
}

// Broker returns the backtest broker.
func (b *Base) Broker() *broker.BacktestBroker { return b.bk }

// Data returns the feed at index i, or nil.
func (b *Base) Data(i int) feed.Feed {
	if i < 0 || i >= len(b.datas) {
		return nil
	}
	return b.datas[i]
}

// Data0 returns the first data feed.
func (b *Base) Data0() feed.Feed { return b.Data(0) }

// DataByName resolves a data feed by name.
func (b *Base) DataByName(name string) feed.Feed {
	for _, d := range b.datas {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// DataCount returns the number of registered feeds.
func (b *Base) DataCount() int { return len(b.datas) }

// BarIndex returns the current bar number.
func (b *Base) BarIndex() int { return b.barIndex }

// BarLength returns the total bar count of the run.
func (b *Base) BarLength() int { return b.barLength }

// Cash returns the broker's cash.
func (b *Base) Cash() float64 { return b.bk.Cash() }

// Value returns the broker's portfolio value.
func (b *Base) Value() float64 { return b.bk.Value() }

// PositionSize returns the position size for a feed (nil means data0).
func (b *Base) PositionSize(d feed.Feed) float64 {
	d = b.orData0(d)
	if d == nil {
		return 0
	}
	return b.bk.Position(d.Name()).Size
}

// AddIndicator registers an indicator for min-period tracking and bulk
// computation.
func (b *Base) AddIndicator(ind indicator.Indicator) {
	b.inds = append(b.inds, ind)
	if mp := ind.MinPeriod(); mp > b.minper {
		b.minper = mp
	}
}

// Indicators returns the registered indicators.
func (b *Base) Indicators() []indicator.Indicator { return b.inds }

// MinPeriod returns the warm-up span of the strategy.
func (b *Base) MinPeriod() int {
	if b.minper < 1 {
		return 1
	}
	return b.minper
}

// UpdateMinPeriod raises the warm-up span.
func (b *Base) UpdateMinPeriod(mp int) {
	if mp > b.minper {
		b.minper = mp
	}
}

func (b *Base) orData0(d feed.Feed) feed.Feed {
	if d != nil {
		return d
	}
	return b.Data0()
}

// sizeFor resolves an order size through the sizer, defaulting to 1.
func (b *Base) sizeFor(d feed.Feed, isBuy bool) float64 {
	if b.szr == nil {
		return 1
	}
	ci := b.bk.CommInfoFor(d.Name())
	return float64(b.szr.SizeFor(b.bk, ci, b.bk.Cash(), d, isBuy))
}

// ---------------------------------------------------------------------------
// Trading API
// ---------------------------------------------------------------------------

// Buy submits a market buy on data0 sized by the sizer.
func (b *Base) Buy() *domain.Order {
	return b.BuyOrder(nil, 0, domain.OrderTypeMarket, 0)
}

// Sell submits a market sell on data0 sized by the sizer.
func (b *Base) Sell() *domain.Order {
	return b.SellOrder(nil, 0, domain.OrderTypeMarket, 0)
}

// BuyOrder submits a buy with full control. A nil feed means data0; a zero
// size defers to the sizer. Returns nil when there is nothing to do.
func (b *Base) BuyOrder(d feed.Feed, size float64, typ domain.OrderType, price float64) *domain.Order {
	return b.order(d, domain.OrderSideBuy, size, typ, price)
}

// SellOrder submits a sell with full control.
func (b *Base) SellOrder(d feed.Feed, size float64, typ domain.OrderType, price float64) *domain.Order {
	return b.order(d, domain.OrderSideSell, size, typ, price)
}

func (b *Base) order(d feed.Feed, side domain.OrderSide, size float64, typ domain.OrderType, price float64) *domain.Order {
	if b.bk == nil {
		return nil
	}
	d = b.orData0(d)
	if d == nil {
		return nil
	}
	if size == 0 {
		size = b.sizeFor(d, side == domain.OrderSideBuy)
	}
	if size <= 0 {
		return nil
	}
	o := domain.NewOrder(d.Name(), side, typ, size)
	o.Price = price
	return b.bk.Submit(o)
}

// ClosePosition flattens the position on a feed (nil means data0). A zero
// size closes everything.
func (b *Base) ClosePosition(d feed.Feed, size float64) *domain.Order {
	if b.bk == nil {
		return nil
	}
	d = b.orData0(d)
	if d == nil {
		return nil
	}
	pos := b.bk.Position(d.Name()).Size
	if pos == 0 {
		return nil
	}
	closeSize := size
	if closeSize <= 0 {
		closeSize = math.Abs(pos)
	}
	if pos > 0 {
		return b.SellOrder(d, closeSize, domain.OrderTypeMarket, 0)
	}
	return b.BuyOrder(d, closeSize, domain.OrderTypeMarket, 0)
}

// Cancel requests cancellation of an order.
func (b *Base) Cancel(o *domain.Order) bool {
	if b.bk == nil {
		return false
	}
	return b.bk.Cancel(o)
}

// OrderTargetSize submits the delta needed to reach the target position
// size. Returns nil when already there.
func (b *Base) OrderTargetSize(d feed.Feed, target float64) *domain.Order {
	d = b.orData0(d)
	if d == nil {
		return nil
	}
	delta := target - b.bk.Position(d.Name()).Size
	switch {
	case delta > 0:
		return b.BuyOrder(d, delta, domain.OrderTypeMarket, 0)
	case delta < 0:
		return b.SellOrder(d, -delta, domain.OrderTypeMarket, 0)
	}
	return nil
}

// OrderTargetValue targets a position worth the given value at the current
// close.
func (b *Base) OrderTargetValue(d feed.Feed, target float64) *domain.Order {
	d = b.orData0(d)
	if d == nil {
		return nil
	}
	price := d.Lines().Close().Get(0)
	if math.IsNaN(price) || price <= 0 {
		return nil
	}
	current := b.bk.Position(d.Name()).Size * price
	size := (target - current) / price
	switch {
	case size > 0:
		return b.BuyOrder(d, size, domain.OrderTypeMarket, 0)
	case size < 0:
		return b.SellOrder(d, -size, domain.OrderTypeMarket, 0)
	}
	return nil
}

// OrderTargetPercent targets a position worth the given percentage of
// portfolio value.
func (b *Base) OrderTargetPercent(d feed.Feed, pct float64) *domain.Order {
	return b.OrderTargetValue(d, b.bk.Value()*pct/100.0)
}

// BracketConfig configures a bracket order group. A zero StopPrice or
// LimitPrice omits the corresponding child.
type BracketConfig struct {
	Size         float64
	Price        float64 // main order limit/trigger price
	ExecType     domain.OrderType
	StopPrice    float64
	StopExec     domain.OrderType
	LimitPrice   float64
	LimitExec    domain.OrderType
	TrailAmount  float64
	TrailPercent float64
	Valid        float64
	TradeID      int
	Transmit     bool // submit the group immediately
}

// NewBracketConfig returns a config with the conventional execution types
// and immediate transmission.
func NewBracketConfig() BracketConfig {
	return BracketConfig{
		ExecType:  domain.OrderTypeMarket,
		StopExec:  domain.OrderTypeStop,
		LimitExec: domain.OrderTypeLimit,
		Transmit:  true,
	}
}

// BuyBracket submits a buy with a protective sell stop and a take-profit
// sell limit linked OCO. Omitted children come back nil.
func (b *Base) BuyBracket(d feed.Feed, cfg BracketConfig) (main, stop, limit *domain.Order) {
	return b.bracket(d, cfg, domain.OrderSideBuy)
}

// SellBracket submits a sell with a protective buy stop and a take-profit
// buy limit linked OCO.
func (b *Base) SellBracket(d feed.Feed, cfg BracketConfig) (main, stop, limit *domain.Order) {
	return b.bracket(d, cfg, domain.OrderSideSell)
}

func (b *Base) bracket(d feed.Feed, cfg BracketConfig, side domain.OrderSide) (main, stop, limit *domain.Order) {
	if b.bk == nil {
		return nil, nil, nil
	}
	d = b.orData0(d)
	if d == nil {
		return nil, nil, nil
	}

	size := cfg.Size
	if size == 0 {
		size = b.sizeFor(d, side == domain.OrderSideBuy)
	}
	if size <= 0 {
		return nil, nil, nil
	}

	childSide := domain.OrderSideSell
	if side == domain.OrderSideSell {
		childSide = domain.OrderSideBuy
	}

	execType := cfg.ExecType
	if execType == "" {
		execType = domain.OrderTypeMarket
	}
	stopExec := cfg.StopExec
	if stopExec == "" {
		stopExec = domain.OrderTypeStop
	}
	limitExec := cfg.LimitExec
	if limitExec == "" {
		limitExec = domain.OrderTypeLimit
	}

	hasStop := cfg.StopPrice > 0 || cfg.TrailAmount > 0 || cfg.TrailPercent > 0
	hasLimit := cfg.LimitPrice > 0

	main = domain.NewOrder(d.Name(), side, execType, size)
	main.Price = cfg.Price
	main.ValidUntil = cfg.Valid
	main.TradeID = cfg.TradeID
	main.Transmit = cfg.Transmit && !hasStop && !hasLimit

	if hasStop {
		typ := stopExec
		if cfg.TrailAmount > 0 || cfg.TrailPercent > 0 {
			typ = domain.OrderTypeStopTrail
		}
		stop = domain.NewOrder(d.Name(), childSide, typ, size)
		stop.Price = cfg.StopPrice
		stop.TrailAmount = cfg.TrailAmount
		stop.TrailPercent = cfg.TrailPercent
		stop.ValidUntil = cfg.Valid
		stop.TradeID = cfg.TradeID
		stop.Parent = main
		stop.Transmit = cfg.Transmit && !hasLimit
		main.Children = append(main.Children, stop)
	}

	if hasLimit {
		limit = domain.NewOrder(d.Name(), childSide, limitExec, size)
		limit.Price = cfg.LimitPrice
		limit.ValidUntil = cfg.Valid
		limit.TradeID = cfg.TradeID
		limit.Parent = main
		limit.Transmit = cfg.Transmit
		main.Children = append(main.Children, limit)

		if stop != nil {
			stop.OCO = limit
			limit.OCO = stop
		}
	}

	b.bk.Submit(main)
	if stop != nil {
		b.bk.Submit(stop)
	}
	if limit != nil {
		b.bk.Submit(limit)
	}
	return main, stop, limit
}

// ---------------------------------------------------------------------------
// Signals and timers
// ---------------------------------------------------------------------------

// AddSignal registers a signal line under the given type.
func (b *Base) AddSignal(line SignalLine, typ SignalType) {
	b.sgnls.Add(line, typ)
}

// Signals returns the strategy's signal group.
func (b *Base) Signals() *Group { return &b.sgnls }

// AddTimer registers a timer and returns its id.
func (b *Base) AddTimer(t Timer) int { return b.tmrs.Add(t) }

// Timers returns the strategy's timer manager.
func (b *Base) Timers() *TimerManager { return &b.tmrs }
