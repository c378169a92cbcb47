package indicator

import (
	"altair/internal/lines"
	"altair/internal/vec"
)

// RSI is Wilder's relative strength index: one-step gains and losses
// smoothed with alpha = 1/period after an SMA seed, then
// 100 - 100/(1+gain/loss). Zero average loss yields 100, zero average gain
// yields 0.
type RSI struct {
	Base
	period int
	alpha  float64

	seen        int
	sumGain     float64
	sumLoss     float64
	avgGain     float64
	avgLoss     float64
	initialized bool
}

// Compile-time interface check.
var _ Indicator = (*RSI)(nil)

// NewRSI creates an RSI over the given source line.
func NewRSI(src *lines.Buffer, period int) *RSI {
	r := &RSI{
		Base:   NewBase(src, "rsi"),
		period: period,
		alpha:  1.0 / float64(period),
	}
	// One extra bar for the first price difference.
	r.setOwnPeriod(period + 1)
	return r
}

// Value returns the output at signed offset k.
func (r *RSI) Value(k int) float64 { return r.out.Line(0).Get(k) }

// Overbought reports whether the current value exceeds level.
func (r *RSI) Overbought(level float64) bool { return r.Value(0) > level }

// Oversold reports whether the current value is below level.
func (r *RSI) Oversold(level float64) bool { return r.Value(0) < level }

// Next implements Indicator.
func (r *RSI) Next() {
	r.seen++
	if r.seen < 2 {
		r.push(lines.NaN)
		return
	}

	change := r.src.Get(0) - r.src.Get(1)
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if !r.initialized {
		r.sumGain += gain
		r.sumLoss += loss
		if r.seen < r.period+1 {
			r.push(lines.NaN)
			return
		}
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
		r.initialized = true
	} else {
		r.avgGain = r.alpha*gain + (1.0-r.alpha)*r.avgGain
		r.avgLoss = r.alpha*loss + (1.0-r.alpha)*r.avgLoss
	}

	switch {
	case r.avgLoss == 0:
		r.push(100.0)
	case r.avgGain == 0:
		r.push(0.0)
	default:
		rs := r.avgGain / r.avgLoss
		r.push(100.0 - 100.0/(1.0+rs))
	}
}

// Once implements Indicator via the RSI kernel.
func (r *RSI) Once(start, end int) {
	data := r.srcValues()
	if data == nil {
		onceByNext(r, r.src, start, end)
		return
	}
	dst := make([]float64, len(data))
	vec.RSI(data, dst, r.period)
	r.pushAll(0, dst[start:end])
}
