package domain

import "math"

// Trade spans one round trip in a data feed: it opens when the position
// leaves zero and closes when the position returns to flat.
type Trade struct {
	Ref  int
	Data string

	IsLong bool
	IsOpen bool

	Size       float64 // peak absolute size while open
	PriceOpen  float64 // entry average price
	PriceClose float64 // exit price
	BarOpen    int
	BarClose   int
	DTOpen     float64
	DTClose    float64

	Commission float64
	PnL        float64
	PnLComm    float64
}

// OpenTrade starts a trade record.
func OpenTrade(ref int, data string, bar int, dt, size, price float64) *Trade {
	return &Trade{
		Ref:       ref,
		Data:      data,
		IsLong:    size > 0,
		IsOpen:    true,
		Size:      math.Abs(size),
		PriceOpen: price,
		BarOpen:   bar,
		DTOpen:    dt,
	}
}

// AddCommission accumulates commission charged while the trade is open.
func (t *Trade) AddCommission(comm float64) { t.Commission += comm }

// Grow raises the tracked size when the position is extended while open and
// re-records the blended entry price.
func (t *Trade) Grow(size, avgPrice float64) {
	abs := math.Abs(size)
	if abs > t.Size {
		t.Size = abs
	}
	t.PriceOpen = avgPrice
}

// CloseTrade finalizes the trade at the exit price. Realized P&L is
// (exit − entry) × size for longs and the negation for shorts; PnLComm
// nets out all accumulated commission.
func (t *Trade) CloseTrade(bar int, dt, price float64) {
	t.BarClose = bar
	t.DTClose = dt
	t.PriceClose = price
	t.IsOpen = false

	if t.IsLong {
		t.PnL = (t.PriceClose - t.PriceOpen) * t.Size
	} else {
		t.PnL = (t.PriceOpen - t.PriceClose) * t.Size
	}
	t.PnLComm = t.PnL - t.Commission
}
