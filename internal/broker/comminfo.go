package broker

import "math"

// CommType selects how a commission scheme charges.
type CommType int

// Commission types.
const (
	CommPercentage CommType = iota // percentage of trade value
	CommFixed                      // fixed amount per unit
	CommPerTrade                   // flat amount per trade
)

// CommInfo answers the commission, margin, valuation, and cash-flow
// questions the broker asks for one asset class.
type CommInfo interface {
	// Commission returns the commission for trading size units at price.
	Commission(size, price float64) float64

	// Margin returns the per-unit margin requirement at price.
	Margin(price float64) float64

	// ValueSize returns the value of size units at price.
	ValueSize(size, price float64) float64

	// OperationCost returns the cash needed to open size units at price,
	// commission included.
	OperationCost(size, price float64) float64

	// CashAdjustOpen returns the cash delta for opening size units (signed)
	// at price. Stock-like assets pay full value; futures lock margin only.
	CashAdjustOpen(size, price float64) float64

	// CashAdjustClose returns the cash delta for closing size units
	// (signed, same sign as the reducing execution) previously held at
	// avgPrice, executed at execPrice.
	CashAdjustClose(size, avgPrice, execPrice float64) float64

	// ProfitAndLoss returns the P&L of size units moved from price to
	// newPrice.
	ProfitAndLoss(size, price, newPrice float64) float64

	// Interest returns the carrying cost of holding size units at price
	// for days days.
	Interest(size, price float64, days int) float64

	// GetSize returns the maximum whole size purchasable with cash at
	// price, accounting for the scheme's commission.
	GetSize(price, cash float64) int

	// Stocklike reports stock (full cash) vs futures (margin) semantics.
	Stocklike() bool
}

// CommScheme is the configurable base commission scheme. The zero value is
// a free scheme with multiplier 1 and futures-like (margin) semantics, since
// StockLike is false; NewCommScheme returns the free stock-like scheme.
type CommScheme struct {
	Rate         float64  // commission rate or amount, per Type
	Type         CommType //
	Mult         float64  // contract multiplier
	MarginReq    float64  // stored margin requirement (futures)
	AutoMargin   bool     // derive margin from price/leverage
	Leverage     float64
	StockLike    bool
	PercAbs      bool    // percentage given as absolute decimal (0.01 = 1%)
	InterestRate float64 // annual, as decimal
	InterestLong bool    // charge interest on longs too
}

// Compile-time interface check.
var _ CommInfo = (*CommScheme)(nil)

// NewCommScheme returns a free stock-like scheme.
func NewCommScheme() *CommScheme {
	return &CommScheme{Mult: 1, Leverage: 1, StockLike: true, PercAbs: true}
}

func (c *CommScheme) mult() float64 {
	if c.Mult == 0 {
		return 1
	}
	return c.Mult
}

func (c *CommScheme) leverage() float64 {
	if c.Leverage == 0 {
		return 1
	}
	return c.Leverage
}

// rate returns the effective percentage rate as an absolute decimal.
func (c *CommScheme) rate() float64 {
	if c.Type != CommPercentage {
		return 0
	}
	if c.PercAbs {
		return c.Rate
	}
	return c.Rate / 100.0
}

// Commission implements CommInfo.
func (c *CommScheme) Commission(size, price float64) float64 {
	size = math.Abs(size)
	switch c.Type {
	case CommPercentage:
		return size * price * c.mult() * c.rate()
	case CommFixed:
		return size * c.Rate
	case CommPerTrade:
		return c.Rate
	}
	return 0
}

// Margin implements CommInfo.
func (c *CommScheme) Margin(price float64) float64 {
	if c.AutoMargin {
		return price * c.mult() / c.leverage()
	}
	if c.MarginReq > 0 {
		return c.MarginReq
	}
	return price * c.mult()
}

// ValueSize implements CommInfo.
func (c *CommScheme) ValueSize(size, price float64) float64 {
	return size * price * c.mult()
}

// OperationCost implements CommInfo.
func (c *CommScheme) OperationCost(size, price float64) float64 {
	return math.Abs(c.ValueSize(size, price)) + c.Commission(size, price)
}

// CashAdjustOpen implements CommInfo.
func (c *CommScheme) CashAdjustOpen(size, price float64) float64 {
	if c.StockLike {
		return -size * price * c.mult()
	}
	return 0 // futures: margin is locked, cash stays
}

// CashAdjustClose implements CommInfo.
func (c *CommScheme) CashAdjustClose(size, avgPrice, execPrice float64) float64 {
	if c.StockLike {
		return -size * execPrice * c.mult()
	}
	return c.ProfitAndLoss(-size, avgPrice, execPrice)
}

// ProfitAndLoss implements CommInfo.
func (c *CommScheme) ProfitAndLoss(size, price, newPrice float64) float64 {
	return size * c.mult() * (newPrice - price)
}

// Interest implements CommInfo.
func (c *CommScheme) Interest(size, price float64, days int) float64 {
	if c.InterestRate == 0 {
		return 0
	}
	if size > 0 && !c.InterestLong {
		return 0
	}
	value := math.Abs(size * price * c.mult())
	return value * (c.InterestRate / 365.0) * float64(days)
}

// GetSize implements CommInfo.
func (c *CommScheme) GetSize(price, cash float64) int {
	if price <= 0 || cash <= 0 {
		return 0
	}
	if !c.StockLike {
		perUnit := c.Margin(price)
		if perUnit <= 0 {
			return 0
		}
		return int(math.Floor(cash / perUnit))
	}

	effective := price * c.mult()
	if c.Type == CommPercentage {
		effective *= 1.0 + c.rate()
	}
	size := math.Floor(cash / effective)

	if c.Type == CommFixed || c.Type == CommPerTrade {
		// Iteratively back off until commission fits too.
		for size > 0 && size*price*c.mult()+c.Commission(size, price) > cash {
			size--
		}
	}
	if size < 0 || math.IsNaN(size) {
		return 0
	}
	return int(size)
}

// Stocklike implements CommInfo.
func (c *CommScheme) Stocklike() bool { return c.StockLike }

// ---------------------------------------------------------------------------
// Pre-configured schemes
// ---------------------------------------------------------------------------

// NewStockComm returns a percentage scheme for stock trading.
func NewStockComm(rate float64, percAbs bool) *CommScheme {
	return &CommScheme{
		Rate:      rate,
		Type:      CommPercentage,
		PercAbs:   percAbs,
		StockLike: true,
		Mult:      1,
		Leverage:  1,
	}
}

// NewFuturesComm returns a fixed-per-contract scheme with margin and
// multiplier.
func NewFuturesComm(commission, margin, mult float64) *CommScheme {
	return &CommScheme{
		Rate:      commission,
		Type:      CommFixed,
		StockLike: false,
		MarginReq: margin,
		Mult:      mult,
	}
}

// NewForexComm returns an auto-margin leveraged scheme with two-sided
// interest.
func NewForexComm(leverage, interest float64) *CommScheme {
	return &CommScheme{
		Type:         CommFixed,
		StockLike:    false,
		Leverage:     leverage,
		AutoMargin:   true,
		InterestRate: interest,
		InterestLong: true,
		Mult:         1,
	}
}

// NewOptionsComm returns a fixed-per-contract scheme with the standard
// equity-option multiplier of 100.
func NewOptionsComm(commission float64) *CommScheme {
	return &CommScheme{
		Rate:      commission,
		Type:      CommFixed,
		StockLike: true,
		Mult:      100,
	}
}

// NewFlatComm returns a flat-fee-per-trade scheme.
func NewFlatComm(feePerTrade float64) *CommScheme {
	return &CommScheme{
		Rate:      feePerTrade,
		Type:      CommPerTrade,
		StockLike: true,
		Mult:      1,
	}
}

// BuySellComm charges different percentage rates for buys and sells.
type BuySellComm struct {
	CommScheme
	BuyRate  float64
	SellRate float64
}

// Compile-time interface check.
var _ CommInfo = (*BuySellComm)(nil)

// NewBuySellComm returns an asymmetric percentage scheme. The side is taken
// from the sign of the size passed to Commission.
func NewBuySellComm(buyRate, sellRate float64, percAbs bool) *BuySellComm {
	return &BuySellComm{
		CommScheme: CommScheme{Type: CommPercentage, PercAbs: percAbs, StockLike: true, Mult: 1, Leverage: 1},
		BuyRate:    buyRate,
		SellRate:   sellRate,
	}
}

// Commission charges BuyRate on positive sizes and SellRate on negative.
func (c *BuySellComm) Commission(size, price float64) float64 {
	rate := c.BuyRate
	if size < 0 {
		rate = c.SellRate
	}
	if !c.PercAbs {
		rate /= 100.0
	}
	return math.Abs(size) * price * c.mult() * rate
}

// IBComm is a tiered per-share scheme bounded below by a per-order minimum
// and above by a percentage of trade value.
type IBComm struct {
	CommScheme
	PerShare      float64
	MinPerOrder   float64
	MaxPercentage float64 // percent of trade value, e.g. 0.5 for 0.5%
}

// Compile-time interface check.
var _ CommInfo = (*IBComm)(nil)

// NewIBComm returns the tiered scheme with conventional defaults.
func NewIBComm() *IBComm {
	return &IBComm{
		CommScheme:    CommScheme{Type: CommFixed, StockLike: true, Mult: 1, Leverage: 1},
		PerShare:      0.005,
		MinPerOrder:   1.0,
		MaxPercentage: 0.5,
	}
}

// Commission applies the per-share rate bounded by the minimum and the
// percent-of-value cap.
func (c *IBComm) Commission(size, price float64) float64 {
	size = math.Abs(size)
	comm := size * c.PerShare
	if comm < c.MinPerOrder {
		comm = c.MinPerOrder
	}
	maxComm := size * price * c.mult() * (c.MaxPercentage / 100.0)
	if comm > maxComm {
		comm = maxComm
	}
	return comm
}

// GetSize backs off iteratively since the tiered commission is not a pure
// rate.
func (c *IBComm) GetSize(price, cash float64) int {
	if price <= 0 || cash <= 0 {
		return 0
	}
	size := math.Floor(cash / price)
	for size > 0 && size*price+c.Commission(size, price) > cash {
		size--
	}
	return int(size)
}
