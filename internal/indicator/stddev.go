package indicator

import (
	"math"

	"altair/internal/lines"
)

// StdDev is the population standard deviation over a window. A constant
// window yields exactly 0.
type StdDev struct {
	Base
	period int
}

// Compile-time interface check.
var _ Indicator = (*StdDev)(nil)

// NewStdDev creates a StdDev over the given source line.
func NewStdDev(src *lines.Buffer, period int) *StdDev {
	s := &StdDev{Base: NewBase(src, "stddev"), period: period}
	s.setOwnPeriod(period)
	return s
}

// Value returns the output at signed offset k.
func (s *StdDev) Value(k int) float64 { return s.out.Line(0).Get(k) }

// Next implements Indicator.
func (s *StdDev) Next() {
	n := float64(s.period)
	sum := 0.0
	for i := 0; i < s.period; i++ {
		sum += s.src.Get(i)
	}
	mean := sum / n

	variance := 0.0
	for i := 0; i < s.period; i++ {
		d := s.src.Get(i) - mean
		variance += d * d
	}
	variance /= n
	if variance < 0 {
		variance = 0
	}
	s.push(math.Sqrt(variance))
}

// Once implements Indicator.
func (s *StdDev) Once(start, end int) { onceByNext(s, s.src, start, end) }
