// Package observer implements per-bar recording observers: line series
// whose values are pushed once per bar from broker state (cash, value,
// drawdown, executed buy/sell prices, trade P&L, returns).
package observer

import (
	"math"

	"altair/internal/broker"
	"altair/internal/domain"
	"altair/internal/lines"
)

// Observer records one or more lines per bar. Cerebro drives it like an
// analyzer: Start before the first bar, Next after each bar's processing,
// plus order/trade notifications for the observers that need them.
type Observer interface {
	// Name returns the observer's registry key.
	Name() string

	// Lines returns the recorded line series.
	Lines() *lines.Series

	// Start resets state before a run.
	Start()

	// Next records the current bar.
	Next()

	// NotifyOrder observes an order status change.
	NotifyOrder(o *domain.Order)

	// NotifyTrade observes a trade event.
	NotifyTrade(t *domain.Trade)
}

// base provides the line plumbing and no-op notifications.
type base struct {
	out *lines.Series
	bk  *broker.BacktestBroker
}

func newBase(bk *broker.BacktestBroker, names ...string) base {
	return base{out: lines.NewSeries(names...), bk: bk}
}

// Lines returns the recorded series.
func (b *base) Lines() *lines.Series { return b.out }

// NotifyOrder is a no-op by default.
func (b *base) NotifyOrder(*domain.Order) {}

// NotifyTrade is a no-op by default.
func (b *base) NotifyTrade(*domain.Trade) {}

// Start resets the recorded lines.
func (b *base) Start() { b.out.Reset() }

func (b *base) push(li int, v float64) {
	line := b.out.Line(li)
	line.Push(v)
	line.Seek(line.Size() - 1)
}

// Cash records the broker's cash per bar.
type Cash struct {
	base
}

// Compile-time interface check.
var _ Observer = (*Cash)(nil)

// NewCash creates a Cash observer.
func NewCash(bk *broker.BacktestBroker) *Cash {
	return &Cash{base: newBase(bk, "cash")}
}

// Name implements Observer.
func (o *Cash) Name() string { return "cash" }

// Next implements Observer.
func (o *Cash) Next() { o.push(0, o.bk.Cash()) }

// Value records the portfolio value per bar.
type Value struct {
	base
}

// Compile-time interface check.
var _ Observer = (*Value)(nil)

// NewValue creates a Value observer.
func NewValue(bk *broker.BacktestBroker) *Value {
	return &Value{base: newBase(bk, "value")}
}

// Name implements Observer.
func (o *Value) Name() string { return "value" }

// Next implements Observer.
func (o *Value) Next() { o.push(0, o.bk.Value()) }

// BrokerObserver records cash and value together.
type BrokerObserver struct {
	base
}

// Compile-time interface check.
var _ Observer = (*BrokerObserver)(nil)

// NewBroker creates a combined cash+value observer.
func NewBroker(bk *broker.BacktestBroker) *BrokerObserver {
	return &BrokerObserver{base: newBase(bk, "cash", "value")}
}

// Name implements Observer.
func (o *BrokerObserver) Name() string { return "broker" }

// Next implements Observer.
func (o *BrokerObserver) Next() {
	o.push(0, o.bk.Cash())
	o.push(1, o.bk.Value())
}

// DrawDown records the current and running-max drawdown percentage.
type DrawDown struct {
	base
	peak float64
}

// Compile-time interface check.
var _ Observer = (*DrawDown)(nil)

// NewDrawDown creates a DrawDown observer.
func NewDrawDown(bk *broker.BacktestBroker) *DrawDown {
	return &DrawDown{base: newBase(bk, "drawdown", "maxdrawdown")}
}

// Name implements Observer.
func (o *DrawDown) Name() string { return "drawdown" }

// Start implements Observer.
func (o *DrawDown) Start() {
	o.base.Start()
	o.peak = o.bk.Value()
}

// Next implements Observer.
func (o *DrawDown) Next() {
	v := o.bk.Value()
	if v > o.peak {
		o.peak = v
	}
	dd := 0.0
	if o.peak > 0 {
		dd = (o.peak - v) / o.peak * 100.0
	}
	prevMax := 0.0
	if line := o.out.Line(1); line.Size() > 0 {
		prevMax = line.Last()
	}
	o.push(0, dd)
	o.push(1, math.Max(prevMax, dd))
}

// BuySell records the executed price of fills per bar: the buy line holds
// the price on bars with a completed buy, NaN otherwise, and likewise for
// sells.
type BuySell struct {
	base
	pending []*domain.Order
}

// Compile-time interface check.
var _ Observer = (*BuySell)(nil)

// NewBuySell creates a BuySell observer.
func NewBuySell(bk *broker.BacktestBroker) *BuySell {
	return &BuySell{base: newBase(bk, "buy", "sell")}
}

// Name implements Observer.
func (o *BuySell) Name() string { return "buysell" }

// NotifyOrder implements Observer.
func (o *BuySell) NotifyOrder(ord *domain.Order) {
	if ord.Status == domain.OrderStatusCompleted {
		o.pending = append(o.pending, ord)
	}
}

// Next implements Observer.
func (o *BuySell) Next() {
	buyPx, sellPx := lines.NaN, lines.NaN
	for _, ord := range o.pending {
		if ord.IsBuy() {
			buyPx = ord.Executed.Price
		} else {
			sellPx = ord.Executed.Price
		}
	}
	o.pending = o.pending[:0]
	o.push(0, buyPx)
	o.push(1, sellPx)
}

// Trades records closed-trade P&L per bar (gross and net), NaN on bars
// without a closing trade.
type Trades struct {
	base
	pending []*domain.Trade
}

// Compile-time interface check.
var _ Observer = (*Trades)(nil)

// NewTrades creates a Trades observer.
func NewTrades(bk *broker.BacktestBroker) *Trades {
	return &Trades{base: newBase(bk, "pnl", "pnlcomm")}
}

// Name implements Observer.
func (o *Trades) Name() string { return "trades" }

// NotifyTrade implements Observer.
func (o *Trades) NotifyTrade(t *domain.Trade) {
	if !t.IsOpen {
		o.pending = append(o.pending, t)
	}
}

// Next implements Observer.
func (o *Trades) Next() {
	pnl, pnlComm := lines.NaN, lines.NaN
	for _, t := range o.pending {
		pnl = t.PnL
		pnlComm = t.PnLComm
	}
	o.pending = o.pending[:0]
	o.push(0, pnl)
	o.push(1, pnlComm)
}

// Returns records the per-bar simple return of portfolio value.
type Returns struct {
	base
	prev float64
}

// Compile-time interface check.
var _ Observer = (*Returns)(nil)

// NewReturns creates a Returns observer.
func NewReturns(bk *broker.BacktestBroker) *Returns {
	return &Returns{base: newBase(bk, "returns")}
}

// Name implements Observer.
func (o *Returns) Name() string { return "returns" }

// Start implements Observer.
func (o *Returns) Start() {
	o.base.Start()
	o.prev = o.bk.Value()
}

// Next implements Observer.
func (o *Returns) Next() {
	v := o.bk.Value()
	ret := 0.0
	if o.prev > 0 {
		ret = (v - o.prev) / o.prev
	}
	o.push(0, ret)
	o.prev = v
}

// LogReturns records the per-bar log return of portfolio value.
type LogReturns struct {
	base
	prev float64
}

// Compile-time interface check.
var _ Observer = (*LogReturns)(nil)

// NewLogReturns creates a LogReturns observer.
func NewLogReturns(bk *broker.BacktestBroker) *LogReturns {
	return &LogReturns{base: newBase(bk, "logreturns")}
}

// Name implements Observer.
func (o *LogReturns) Name() string { return "logreturns" }

// Start implements Observer.
func (o *LogReturns) Start() {
	o.base.Start()
	o.prev = o.bk.Value()
}

// Next implements Observer.
func (o *LogReturns) Next() {
	v := o.bk.Value()
	ret := 0.0
	if o.prev > 0 && v > 0 {
		ret = math.Log(v / o.prev)
	}
	o.push(0, ret)
	o.prev = v
}
