package indicator

import (
	"altair/internal/lines"
	"altair/internal/vec"
)

// Highest is the rolling maximum of the bound line over a window.
type Highest struct {
	Base
	period int
}

// Compile-time interface check.
var _ Indicator = (*Highest)(nil)

// NewHighest creates a rolling maximum over the given source line.
func NewHighest(src *lines.Buffer, period int) *Highest {
	h := &Highest{Base: NewBase(src, "highest"), period: period}
	h.setOwnPeriod(period)
	return h
}

// Value returns the output at signed offset k.
func (h *Highest) Value(k int) float64 { return h.out.Line(0).Get(k) }

// Next implements Indicator.
func (h *Highest) Next() {
	best := h.src.Get(0)
	for i := 1; i < h.period; i++ {
		v := h.src.Get(i)
		if isNaN(v) {
			h.push(lines.NaN)
			return
		}
		if v > best {
			best = v
		}
	}
	h.push(best)
}

// Once implements Indicator via the sliding-max kernel.
func (h *Highest) Once(start, end int) {
	data := h.srcValues()
	if data == nil {
		onceByNext(h, h.src, start, end)
		return
	}
	dst := make([]float64, len(data))
	vec.SlidingMax(data, dst, h.period)
	h.pushAll(0, dst[start:end])
}

// Lowest is the rolling minimum of the bound line over a window.
type Lowest struct {
	Base
	period int
}

// Compile-time interface check.
var _ Indicator = (*Lowest)(nil)

// NewLowest creates a rolling minimum over the given source line.
func NewLowest(src *lines.Buffer, period int) *Lowest {
	l := &Lowest{Base: NewBase(src, "lowest"), period: period}
	l.setOwnPeriod(period)
	return l
}

// Value returns the output at signed offset k.
func (l *Lowest) Value(k int) float64 { return l.out.Line(0).Get(k) }

// Next implements Indicator.
func (l *Lowest) Next() {
	best := l.src.Get(0)
	for i := 1; i < l.period; i++ {
		v := l.src.Get(i)
		if isNaN(v) {
			l.push(lines.NaN)
			return
		}
		if v < best {
			best = v
		}
	}
	l.push(best)
}

// Once implements Indicator via the sliding-min kernel.
func (l *Lowest) Once(start, end int) {
	data := l.srcValues()
	if data == nil {
		onceByNext(l, l.src, start, end)
		return
	}
	dst := make([]float64, len(data))
	vec.SlidingMin(data, dst, l.period)
	l.pushAll(0, dst[start:end])
}
