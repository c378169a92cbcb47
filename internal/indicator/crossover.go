package indicator

import "altair/internal/lines"

// CrossOver signals crossings between two lines: +1 on the bar where a
// crosses above b, -1 where it crosses below, 0 otherwise. NaN inputs
// produce 0.
type CrossOver struct {
	Base
	b *lines.Buffer
}

// Compile-time interface check.
var _ Indicator = (*CrossOver)(nil)

// NewCrossOver creates a crossing signal between lines a and b.
func NewCrossOver(a, b *lines.Buffer) *CrossOver {
	c := &CrossOver{Base: NewBase(a, "crossover"), b: b}
	// Needs the previous bar of both inputs.
	own := 2
	if bmp := b.MinPeriod(); bmp > a.MinPeriod() {
		// Fold in the slower input by hand: Base only sees a.
		c.minperiod = own + bmp - 1
		c.out.UpdateMinPeriod(c.minperiod)
		return c
	}
	c.setOwnPeriod(own)
	return c
}

// Value returns the signal at signed offset k.
func (c *CrossOver) Value(k int) float64 { return c.out.Line(0).Get(k) }

// Next implements Indicator.
func (c *CrossOver) Next() {
	now := c.src.Get(0) - c.b.Get(0)
	prev := c.src.Get(1) - c.b.Get(1)

	if isNaN(now) || isNaN(prev) {
		c.push(0)
		return
	}
	switch {
	case prev <= 0 && now > 0:
		c.push(1)
	case prev >= 0 && now < 0:
		c.push(-1)
	default:
		c.push(0)
	}
}

// Once implements Indicator. Both inputs must be positioned per bar, so the
// bulk path replays Next with both cursors seeked.
func (c *CrossOver) Once(start, end int) {
	for i := start; i < end; i++ {
		c.src.Seek(i)
		c.b.Seek(i)
		c.Next()
	}
}
