package indicator

import (
	"altair/internal/lines"
	"altair/internal/vec"
)

// EMA is the exponential moving average with alpha = 2/(period+1), seeded
// at bar period-1 with the SMA of the first period values.
type EMA struct {
	Base
	period int
	alpha  float64

	started bool
	prev    float64
}

// Compile-time interface check.
var _ Indicator = (*EMA)(nil)

// NewEMA creates an EMA over the given source line.
func NewEMA(src *lines.Buffer, period int) *EMA {
	e := &EMA{
		Base:   NewBase(src, "ema"),
		period: period,
		alpha:  2.0 / (float64(period) + 1.0),
	}
	e.setOwnPeriod(period)
	return e
}

// Value returns the output at signed offset k.
func (e *EMA) Value(k int) float64 { return e.out.Line(0).Get(k) }

// Next implements Indicator. The seed waits for the first full window of
// defined source values, so a NaN-prefixed chained source works too.
func (e *EMA) Next() {
	if !e.started {
		sum := 0.0
		for i := 0; i < e.period; i++ {
			sum += e.src.Get(i)
		}
		seed := sum / float64(e.period)
		if isNaN(seed) {
			e.push(lines.NaN)
			return
		}
		e.prev = seed
		e.started = true
		e.push(seed)
		return
	}
	e.prev = e.alpha*e.src.Get(0) + (1.0-e.alpha)*e.prev
	e.push(e.prev)
}

// Once implements Indicator via the EMA kernel.
func (e *EMA) Once(start, end int) {
	data := e.srcValues()
	if data == nil {
		onceByNext(e, e.src, start, end)
		return
	}
	dst := make([]float64, len(data))
	vec.EMA(data, dst, e.period)
	e.pushAll(0, dst[start:end])

	// Keep the event-driven state consistent so mixed usage works.
	if end > 0 && !isNaN(dst[end-1]) {
		e.prev = dst[end-1]
		e.started = true
	}
}
