package domain

import "math"

// Position tracks holdings in one data feed as (size, average price).
// Positive size is long, negative short.
type Position struct {
	Size  float64
	Price float64
}

// Update applies an execution of delta units at price and returns the
// portions that opened and closed position:
//
//   - flat or same-side: everything opens, volume-weighted average price
//   - opposite side within the position: everything closes
//   - crossing zero: the standing size closes, the remainder opens and the
//     average price resets to the execution price
func (p *Position) Update(delta, price float64) (opened, closed float64) {
	if delta == 0 {
		return 0, 0
	}

	switch {
	case p.Size == 0:
		p.Size = delta
		p.Price = price
		return delta, 0

	case (p.Size > 0) == (delta > 0):
		total := p.Size*p.Price + delta*price
		p.Size += delta
		p.Price = total / p.Size
		return delta, 0

	case math.Abs(delta) <= math.Abs(p.Size):
		p.Size += delta
		if math.Abs(p.Size) < 1e-10 {
			p.Size = 0
			p.Price = 0
		}
		return 0, delta

	default:
		closed = -p.Size
		opened = delta + p.Size
		p.Size += delta
		p.Price = price
		return opened, closed
	}
}

// Close flattens the position.
func (p *Position) Close() {
	p.Size = 0
	p.Price = 0
}

// IsLong reports a positive position.
func (p *Position) IsLong() bool { return p.Size > 0 }

// IsShort reports a negative position.
func (p *Position) IsShort() bool { return p.Size < 0 }

// IsOpen reports a non-zero position.
func (p *Position) IsOpen() bool { return p.Size != 0 }

// Value returns size times average price.
func (p *Position) Value() float64 { return p.Size * p.Price }
