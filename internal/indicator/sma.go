package indicator

import (
	"altair/internal/lines"
	"altair/internal/vec"
)

// SMA is the simple moving average of the bound line.
type SMA struct {
	Base
	period int
}

// Compile-time interface check.
var _ Indicator = (*SMA)(nil)

// NewSMA creates an SMA over the given source line.
func NewSMA(src *lines.Buffer, period int) *SMA {
	s := &SMA{Base: NewBase(src, "sma"), period: period}
	s.setOwnPeriod(period)
	return s
}

// Period returns the averaging window.
func (s *SMA) Period() int { return s.period }

// Value returns the output at signed offset k.
func (s *SMA) Value(k int) float64 { return s.out.Line(0).Get(k) }

// Next implements Indicator. Reads past the start of data propagate NaN,
// which keeps the warm-up prefix NaN without explicit counting.
func (s *SMA) Next() {
	sum := 0.0
	for i := 0; i < s.period; i++ {
		sum += s.src.Get(i)
	}
	s.push(sum / float64(s.period))
}

// Once implements Indicator via the sliding-mean kernel.
func (s *SMA) Once(start, end int) {
	data := s.srcValues()
	if data == nil {
		onceByNext(s, s.src, start, end)
		return
	}
	dst := make([]float64, len(data))
	vec.SlidingMean(data, dst, s.period)
	s.pushAll(0, dst[start:end])
}

// WMA is the linearly weighted moving average: the most recent value
// carries weight period, the oldest weight 1.
type WMA struct {
	Base
	period int
}

// Compile-time interface check.
var _ Indicator = (*WMA)(nil)

// NewWMA creates a WMA over the given source line.
func NewWMA(src *lines.Buffer, period int) *WMA {
	w := &WMA{Base: NewBase(src, "wma"), period: period}
	w.setOwnPeriod(period)
	return w
}

// Value returns the output at signed offset k.
func (w *WMA) Value(k int) float64 { return w.out.Line(0).Get(k) }

// Next implements Indicator.
func (w *WMA) Next() {
	var weighted, total float64
	for i := 0; i < w.period; i++ {
		weight := float64(w.period - i)
		weighted += w.src.Get(i) * weight
		total += weight
	}
	w.push(weighted / total)
}

// Once implements Indicator.
func (w *WMA) Once(start, end int) { onceByNext(w, w.src, start, end) }
