// Package broker simulates order execution against historical bars. It
// implements the order lifecycle, fill matching with slippage and volume
// constraints, commission and margin accounting, position and trade
// tracking, and optional fund-mode NAV bookkeeping.
package broker

import (
	"math"

	"altair/internal/domain"
	"altair/internal/feed"
)

// Broker is the surface strategies and sizers trade through.
type Broker interface {
	// Submit hands an order to the broker. The returned order is the same
	// object with its reference assigned and status advanced.
	Submit(o *domain.Order) *domain.Order

	// Cancel requests cancellation. It reports whether the order was still
	// alive.
	Cancel(o *domain.Order) bool

	// Cash returns the current cash balance.
	Cash() float64

	// Value returns cash plus the mark-to-market of every position.
	Value() float64

	// Position returns the position for a data feed name. The returned
	// pointer is live broker state.
	Position(data string) *domain.Position

	// CommInfoFor resolves the commission scheme for a data feed name.
	CommInfoFor(data string) CommInfo
}

// Params configures a BacktestBroker.
type Params struct {
	Cash         float64
	CheckSubmit  bool // validate cash/margin at submit time
	CheatOnOpen  bool
	CheatOnClose bool
	FundMode     bool
	FundStartVal float64
	Slippage     SlippageConfig
}

// DefaultParams returns the conventional backtest configuration.
func DefaultParams() Params {
	return Params{Cash: 100000, CheckSubmit: true, FundStartVal: 100}
}

// BacktestBroker executes orders against the bars of registered data feeds.
//
// Matching runs once per bar through Next (normal), NextOpen
// (cheat-on-open), or NextClose (cheat-on-close); Cerebro picks the entry
// point from its bar policy. Orders submitted during a bar's strategy hooks
// are matched on the following call.
type BacktestBroker struct {
	params    Params
	cash      float64
	startCash float64

	feeds     map[string]feed.Feed
	positions map[string]*domain.Position

	orders  []*domain.Order
	pending []*domain.Order
	nextRef int

	comm    CommInfo
	commMap map[string]CommInfo
	filler  VolumeFiller

	openTrades map[string]*domain.Trade
	trades     []*domain.Trade
	nextTrade  int

	fundShares float64
	fundValue  float64

	bar int
	dt  float64

	notifOrders []*domain.Order
	notifTrades []*domain.Trade
}

// Compile-time interface check.
var _ Broker = (*BacktestBroker)(nil)

// NewBacktestBroker creates a broker with the given parameters.
func NewBacktestBroker(params Params) *BacktestBroker {
	b := &BacktestBroker{
		params:     params,
		cash:       params.Cash,
		startCash:  params.Cash,
		feeds:      make(map[string]feed.Feed),
		positions:  make(map[string]*domain.Position),
		commMap:    make(map[string]CommInfo),
		openTrades: make(map[string]*domain.Trade),
		comm:       NewCommScheme(),
		filler:     DefaultFiller{},
	}
	if params.FundMode {
		b.enableFundMode(params.FundStartVal)
	}
	return b
}

// Params returns the broker configuration.
func (b *BacktestBroker) Params() Params { return b.params }

// AddFeed registers a data feed under its name.
func (b *BacktestBroker) AddFeed(f feed.Feed) { b.feeds[f.Name()] = f }

// SetCash resets both current and starting cash.
func (b *BacktestBroker) SetCash(cash float64) {
	b.cash = cash
	b.startCash = cash
	if b.params.FundMode {
		b.enableFundMode(b.params.FundStartVal)
	}
}

// AddCash adjusts the cash balance by delta.
func (b *BacktestBroker) AddCash(delta float64) { b.cash += delta }

// Cash implements Broker.
func (b *BacktestBroker) Cash() float64 { return b.cash }

// StartCash returns the cash at the start of the run.
func (b *BacktestBroker) StartCash() float64 { return b.startCash }

// Value implements Broker. Stock-like positions are marked at the current
// close; futures-like positions contribute their unrealized P&L (margin
// stays in cash).
func (b *BacktestBroker) Value() float64 {
	val := b.cash
	for name, pos := range b.positions {
		if pos.Size == 0 {
			continue
		}
		f, ok := b.feeds[name]
		if !ok {
			continue
		}
		closePx := f.Lines().Close().Get(0)
		if math.IsNaN(closePx) {
			continue
		}
		ci := b.CommInfoFor(name)
		if ci.Stocklike() {
			val += pos.Size * closePx
		} else {
			val += ci.ProfitAndLoss(pos.Size, pos.Price, closePx)
		}
	}
	return val
}

// Position implements Broker.
func (b *BacktestBroker) Position(data string) *domain.Position {
	pos, ok := b.positions[data]
	if !ok {
		pos = &domain.Position{}
		b.positions[data] = pos
	}
	return pos
}

// SetCommission installs the default commission scheme.
func (b *BacktestBroker) SetCommission(ci CommInfo) { b.comm = ci }

// SetCommissionFor installs a per-data commission scheme override.
func (b *BacktestBroker) SetCommissionFor(data string, ci CommInfo) { b.commMap[data] = ci }

// CommInfoFor implements Broker.
func (b *BacktestBroker) CommInfoFor(data string) CommInfo {
	if ci, ok := b.commMap[data]; ok {
		return ci
	}
	return b.comm
}

// SetFiller installs the volume filler.
func (b *BacktestBroker) SetFiller(f VolumeFiller) { b.filler = f }

// SetSlippage replaces the slippage configuration.
func (b *BacktestBroker) SetSlippage(s SlippageConfig) { b.params.Slippage = s }

// ---------------------------------------------------------------------------
// Fund mode
// ---------------------------------------------------------------------------

func (b *BacktestBroker) enableFundMode(startVal float64) {
	if startVal <= 0 {
		startVal = 100
	}
	b.params.FundMode = true
	b.params.FundStartVal = startVal
	b.fundShares = b.cash / startVal
	b.fundValue = startVal
}

// SetFundMode switches fund-mode NAV tracking on or off.
func (b *BacktestBroker) SetFundMode(enabled bool, startVal float64) {
	if enabled {
		b.enableFundMode(startVal)
		return
	}
	b.params.FundMode = false
}

// FundMode reports whether NAV tracking is enabled.
func (b *BacktestBroker) FundMode() bool { return b.params.FundMode }

// FundShares returns the outstanding fund shares.
func (b *BacktestBroker) FundShares() float64 { return b.fundShares }

// FundValue returns the current NAV per share.
func (b *BacktestBroker) FundValue() float64 { return b.fundValue }

// ---------------------------------------------------------------------------
// Order entry
// ---------------------------------------------------------------------------

// Buy builds and submits a buy order.
func (b *BacktestBroker) Buy(data string, size float64, typ domain.OrderType, price float64) *domain.Order {
	o := domain.NewOrder(data, domain.OrderSideBuy, typ, size)
	o.Price = price
	return b.Submit(o)
}

// Sell builds and submits a sell order.
func (b *BacktestBroker) Sell(data string, size float64, typ domain.OrderType, price float64) *domain.Order {
	o := domain.NewOrder(data, domain.OrderSideSell, typ, size)
	o.Price = price
	return b.Submit(o)
}

// Submit implements Broker.
func (b *BacktestBroker) Submit(o *domain.Order) *domain.Order {
	b.nextRef++
	o.Ref = b.nextRef
	o.Submit()
	b.orders = append(b.orders, o)
	b.pending = append(b.pending, o)
	b.notify(o)

	if _, ok := b.feeds[o.Data]; !ok {
		o.Reject()
		b.notify(o)
		return o
	}

	if b.params.CheckSubmit && !b.sufficientFunds(o) {
		o.MarginCall()
		b.notify(o)
		return o
	}

	// Transmit=false holds a bracket group open; the closing child with
	// Transmit=true activates everyone it is linked to.
	if o.Transmit {
		o.Active = true
		if o.Parent != nil {
			b.activateGroup(o.Parent)
		}
		o.Accept()
		b.notify(o)
	} else {
		o.Active = false
	}
	return o
}

func (b *BacktestBroker) activateGroup(parent *domain.Order) {
	if parent.Alive() {
		parent.Active = true
		if parent.Status == domain.OrderStatusSubmitted {
			parent.Accept()
			b.notify(parent)
		}
	}
	for _, child := range parent.Children {
		if child.Alive() {
			child.Active = true
			if child.Status == domain.OrderStatusSubmitted {
				child.Accept()
				b.notify(child)
			}
		}
	}
}

// sufficientFunds estimates whether cash (stock) or margin (futures) covers
// the order. Orders that only reduce an existing position always pass.
func (b *BacktestBroker) sufficientFunds(o *domain.Order) bool {
	pos := b.Position(o.Data)
	if o.IsBuy() && pos.Size < 0 && o.Size <= -pos.Size {
		return true
	}
	if o.IsSell() && pos.Size > 0 && o.Size <= pos.Size {
		return true
	}

	f := b.feeds[o.Data]
	px := f.Lines().Close().Get(0)
	if math.IsNaN(px) || px == 0 {
		px = o.Price
	}
	if px == 0 {
		return true // no reference price yet; let matching decide
	}

	ci := b.CommInfoFor(o.Data)
	var required float64
	if ci.Stocklike() {
		if o.IsSell() {
			return true // short sales generate cash in this model
		}
		required = ci.OperationCost(o.Size, px)
	} else {
		required = ci.Margin(px)*o.Size + ci.Commission(o.Size, px)
	}
	return required <= b.cash
}

// Cancel implements Broker.
func (b *BacktestBroker) Cancel(o *domain.Order) bool {
	if o == nil || !o.Alive() {
		return false
	}
	o.Cancel()
	b.notify(o)
	b.cancelChildren(o)
	b.cancelOCO(o)
	return true
}

func (b *BacktestBroker) cancelChildren(o *domain.Order) {
	for _, child := range o.Children {
		if child.Alive() {
			child.Cancel()
			b.notify(child)
			b.cancelOCO(child)
		}
	}
}

func (b *BacktestBroker) cancelOCO(o *domain.Order) {
	if o.OCO != nil && o.OCO.Alive() {
		o.OCO.Cancel()
		b.notify(o.OCO)
	}
}

// ---------------------------------------------------------------------------
// Per-bar processing
// ---------------------------------------------------------------------------

// SetBar records the bar index and datetime the next matching pass runs
// under. Cerebro calls it after advancing the data cursors.
func (b *BacktestBroker) SetBar(index int, dt float64) {
	b.bar = index
	b.dt = dt
}

type fillMode int

const (
	fillAtOpen fillMode = iota
	fillAtClose
)

// Next matches pending orders under the normal bar policy: market orders
// fill at the current bar's open.
func (b *BacktestBroker) Next() { b.match(fillAtOpen) }

// NextOpen matches pending orders during the cheat-on-open phase. Fill
// rules equal the normal policy; the difference is when Cerebro calls it.
func (b *BacktestBroker) NextOpen() { b.match(fillAtOpen) }

// NextClose matches pending orders under cheat-on-close: market orders fill
// at the current bar's close.
func (b *BacktestBroker) NextClose() { b.match(fillAtClose) }

func (b *BacktestBroker) match(mode fillMode) {
	live := b.pending[:0]
	queue := b.pending
	for _, o := range queue {
		if !o.Alive() {
			continue
		}
		b.matchOrder(o, mode)
		if o.Alive() {
			live = append(live, o)
		}
	}
	b.pending = live
}

func (b *BacktestBroker) matchOrder(o *domain.Order, mode fillMode) {
	f, ok := b.feeds[o.Data]
	if !ok {
		o.Reject()
		b.notify(o)
		return
	}
	ls := f.Lines()
	if ls.Len() == 0 {
		return
	}

	openPx := ls.Open().Get(0)
	highPx := ls.High().Get(0)
	lowPx := ls.Low().Get(0)
	closePx := ls.Close().Get(0)
	volume := ls.Volume().Get(0)

	o.TrailAdjust(closePx)

	if o.Expire(b.dt) {
		b.notify(o)
		b.cancelOCO(o)
		return
	}

	if !o.Active {
		return
	}
	if o.Parent != nil {
		switch o.Parent.Status {
		case domain.OrderStatusCompleted:
			// Parent filled; child is live.
		case domain.OrderStatusCanceled, domain.OrderStatusRejected,
			domain.OrderStatusExpired, domain.OrderStatusMargin:
			o.Cancel()
			b.notify(o)
			b.cancelOCO(o)
			return
		default:
			return // parent still working
		}
	}

	price, slip, ok := b.triggerPrice(o, mode, openPx, highPx, lowPx, closePx)
	if !ok {
		return
	}
	if slip {
		price = b.params.Slippage.Apply(price, o.IsBuy(), lowPx, highPx)
	}

	fillSize := b.filler.Fill(o, price, volume)
	if fillSize <= 0 {
		return
	}

	b.execute(o, price, fillSize)
	b.notify(o)

	if o.Status == domain.OrderStatusCompleted {
		b.cancelOCO(o)
	}
}

// triggerPrice decides whether the order executes on the current bar and at
// what raw price. The second return reports whether slippage applies.
func (b *BacktestBroker) triggerPrice(o *domain.Order, mode fillMode, openPx, highPx, lowPx, closePx float64) (float64, bool, bool) {
	slipCfg := b.params.Slippage

	switch o.Type {
	case domain.OrderTypeMarket, domain.OrderTypeHistorical:
		if mode == fillAtClose {
			return closePx, false, true
		}
		return openPx, slipCfg.SlipOpen, true

	case domain.OrderTypeClose:
		return closePx, false, true

	case domain.OrderTypeLimit:
		px, ok := limitPrice(o.IsBuy(), o.Price, openPx, highPx, lowPx)
		return px, ok && slipCfg.SlipLimit, ok

	case domain.OrderTypeStop, domain.OrderTypeStopTrail:
		px, ok := stopPrice(o.IsBuy(), o.Price, openPx, highPx, lowPx)
		return px, ok && slipCfg.SlipMatch, ok

	case domain.OrderTypeStopLimit, domain.OrderTypeStopTrailLimit:
		if !o.Triggered {
			if _, ok := stopPrice(o.IsBuy(), o.Price, openPx, highPx, lowPx); !ok {
				return 0, false, false
			}
			o.Triggered = true
		}
		px, ok := limitPrice(o.IsBuy(), o.LimitPrice, openPx, highPx, lowPx)
		return px, ok && slipCfg.SlipLimit, ok
	}
	return 0, false, false
}

// limitPrice applies the limit matching rule: a buy needs the bar to trade
// at or below the limit and fills at the better of open and limit.
func limitPrice(isBuy bool, limit, openPx, highPx, lowPx float64) (float64, bool) {
	if isBuy {
		if lowPx <= limit {
			return math.Min(openPx, limit), true
		}
		return 0, false
	}
	if highPx >= limit {
		return math.Max(openPx, limit), true
	}
	return 0, false
}

// stopPrice applies the stop matching rule: a buy stop triggers when the
// bar trades at or above the stop and fills at the worse of open and stop.
func stopPrice(isBuy bool, stop, openPx, highPx, lowPx float64) (float64, bool) {
	if isBuy {
		if highPx >= stop {
			return math.Max(openPx, stop), true
		}
		return 0, false
	}
	if lowPx <= stop {
		return math.Min(openPx, stop), true
	}
	return 0, false
}

// execute applies a fill to cash, position, order, and trade state.
func (b *BacktestBroker) execute(o *domain.Order, price, fillSize float64) {
	ci := b.CommInfoFor(o.Data)
	pos := b.Position(o.Data)

	oldAvg := pos.Price

	delta := fillSize
	if o.IsSell() {
		delta = -fillSize
	}

	opened, closed := pos.Update(delta, price)
	pnl := ci.ProfitAndLoss(-closed, oldAvg, price)
	comm := ci.Commission(delta, price)

	b.cash += ci.CashAdjustOpen(opened, price)
	b.cash += ci.CashAdjustClose(closed, oldAvg, price)
	b.cash -= comm

	// Split commission between the closed and opened portions.
	var openedComm, closedComm float64
	switch {
	case opened != 0 && closed != 0:
		closedComm = comm * math.Abs(closed) / fillSize
		openedComm = comm - closedComm
	case closed != 0:
		closedComm = comm
	default:
		openedComm = comm
	}

	var marginUsed float64
	if !ci.Stocklike() {
		marginUsed = ci.Margin(price) * math.Abs(opened)
	}

	o.Execute(domain.ExecBit{
		DT:         b.dt,
		Size:       fillSize,
		Price:      price,
		Closed:     math.Abs(closed),
		ClosedVal:  math.Abs(ci.ValueSize(closed, price)),
		ClosedComm: closedComm,
		Opened:     math.Abs(opened),
		OpenedVal:  math.Abs(ci.ValueSize(opened, price)),
		OpenedComm: openedComm,
		PnL:        pnl,
	})
	o.Executed.Margin = marginUsed
	o.Executed.PosSize = pos.Size
	o.Executed.PosPrice = pos.Price

	b.updateTrades(o.Data, price, opened, closed, openedComm, closedComm, pos)
}

// updateTrades maintains the per-data round-trip trade records across an
// execution that may close, extend, and/or open position.
func (b *BacktestBroker) updateTrades(data string, price, opened, closed, openedComm, closedComm float64, pos *domain.Position) {
	tr := b.openTrades[data]

	if closed != 0 && tr != nil {
		tr.AddCommission(closedComm)
		stillOpen := pos.Size != 0 && (pos.Size > 0) == tr.IsLong
		if !stillOpen {
			tr.CloseTrade(b.bar, b.dt, price)
			b.trades = append(b.trades, tr)
			delete(b.openTrades, data)
			b.notifTrades = append(b.notifTrades, tr)
			tr = nil
		}
	}

	if opened != 0 {
		if tr == nil {
			b.nextTrade++
			tr = domain.OpenTrade(b.nextTrade, data, b.bar, b.dt, opened, price)
			tr.AddCommission(openedComm)
			b.openTrades[data] = tr
			b.notifTrades = append(b.notifTrades, tr)
		} else {
			tr.AddCommission(openedComm)
			tr.Grow(pos.Size, pos.Price)
		}
	}
}

// ChargeInterest applies one day of carrying cost to every open position,
// marked at the current close.
func (b *BacktestBroker) ChargeInterest() {
	for name, pos := range b.positions {
		if pos.Size == 0 {
			continue
		}
		f, ok := b.feeds[name]
		if !ok {
			continue
		}
		closePx := f.Lines().Close().Get(0)
		if math.IsNaN(closePx) {
			continue
		}
		b.cash -= b.CommInfoFor(name).Interest(pos.Size, closePx, 1)
	}
}

// MarkFund recomputes the fund NAV after position marking. No-op outside
// fund mode.
func (b *BacktestBroker) MarkFund() {
	if !b.params.FundMode || b.fundShares == 0 {
		return
	}
	b.fundValue = b.Value() / b.fundShares
}

// ---------------------------------------------------------------------------
// Introspection and notifications
// ---------------------------------------------------------------------------

// Orders returns every order the broker has seen.
func (b *BacktestBroker) Orders() []*domain.Order { return b.orders }

// Trades returns all closed trades.
func (b *BacktestBroker) Trades() []*domain.Trade { return b.trades }

// OpenTrade returns the open trade for a data feed, or nil.
func (b *BacktestBroker) OpenTrade(data string) *domain.Trade { return b.openTrades[data] }

func (b *BacktestBroker) notify(o *domain.Order) {
	b.notifOrders = append(b.notifOrders, o)
}

// PopOrderNotifications drains the queued order status notifications.
func (b *BacktestBroker) PopOrderNotifications() []*domain.Order {
	n := b.notifOrders
	b.notifOrders = nil
	return n
}

// PopTradeNotifications drains the queued trade notifications.
func (b *BacktestBroker) PopTradeNotifications() []*domain.Trade {
	n := b.notifTrades
	b.notifTrades = nil
	return n
}

// Reset returns the broker to its initial state, keeping configuration.
func (b *BacktestBroker) Reset() {
	b.cash = b.startCash
	b.positions = make(map[string]*domain.Position)
	b.orders = nil
	b.pending = nil
	b.trades = nil
	b.openTrades = make(map[string]*domain.Trade)
	b.nextRef = 0
	b.nextTrade = 0
	b.notifOrders = nil
	b.notifTrades = nil
	b.bar = 0
	b.dt = 0
	if b.params.FundMode {
		b.enableFundMode(b.params.FundStartVal)
	}
}
