// Package indicator implements declarative computations over line series.
// Every indicator supports two execution modes that produce identical
// outputs: event-driven Next (one bar per call) and bulk Once (whole range,
// through the vec kernels where the indicator has one and by replaying Next
// otherwise).
//
// Output lines stay aligned one-to-one with the input bars; the warm-up
// prefix holds NaN. The output cursor tracks the most recent bar, so
// Line(i).Get(0) is the current value and Get(1) the previous one.
package indicator

import (
	"altair/internal/lines"
)

// Indicator is the capability set shared by all indicators.
type Indicator interface {
	// Lines returns the output line series.
	Lines() *lines.Series

	// MinPeriod returns the number of bars needed before the first defined
	// output, including the warm-up of any upstream indicator.
	MinPeriod() int

	// Next computes one bar of output from the bound source's cursor.
	Next()

	// Once bulk-computes outputs for the half-open bar range [start, end).
	Once(start, end int)
}

// Base carries the line plumbing shared by the concrete indicators: the
// output series, the bound input line, and minimum-period propagation.
type Base struct {
	out       *lines.Series
	src       *lines.Buffer
	minperiod int
}

// NewBase creates the output series with the given line names.
func NewBase(src *lines.Buffer, names ...string) Base {
	return Base{out: lines.NewSeries(names...), src: src, minperiod: 1}
}

// Lines returns the output series.
func (b *Base) Lines() *lines.Series { return b.out }

// MinPeriod returns the effective minimum period.
func (b *Base) MinPeriod() int { return b.minperiod }

// Source returns the bound input line.
func (b *Base) Source() *lines.Buffer { return b.src }

// setOwnPeriod records the indicator's own warm-up and folds in the
// source's: a dependent needs its own bars on top of the bars the
// dependency needs for its first defined value.
func (b *Base) setOwnPeriod(own int) {
	mp := own + b.src.MinPeriod() - 1
	if mp < 1 {
		mp = 1
	}
	b.minperiod = mp
	b.out.UpdateMinPeriod(mp)
}

// push appends one value per output line and parks the cursors on it.
func (b *Base) push(vals ...float64) {
	for i, v := range vals {
		line := b.out.Line(i)
		line.Push(v)
		line.Seek(line.Size() - 1)
	}
}

// onceByNext is the default bulk path: replay Next over the range with the
// source cursor positioned per bar.
func onceByNext(ind Indicator, src *lines.Buffer, start, end int) {
	for i := start; i < end; i++ {
		src.Seek(i)
		ind.Next()
	}
}

// srcValues returns the raw input slice when available (unbounded source).
func (b *Base) srcValues() []float64 { return b.src.Values() }

// pushAll appends a full output column to line li and parks the cursor.
func (b *Base) pushAll(li int, vals []float64) {
	line := b.out.Line(li)
	line.Extend(vals)
	line.Seek(line.Size() - 1)
}
