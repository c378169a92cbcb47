// Package analyzer implements per-run statistics aggregators. Analyzers
// observe every bar and every closed trade and produce a flat
// name-to-value map when the run stops; keys are lowercase with
// underscores.
package analyzer

import (
	"math"

	"altair/internal/domain"
)

// Analyzer is driven by Cerebro: Start before the first bar, Next after
// each bar, NotifyTrade on trade events, Stop after the last bar.
type Analyzer interface {
	// Name returns the analyzer's registry key.
	Name() string

	// Start resets state before a run.
	Start()

	// Next observes one completed bar.
	Next()

	// NotifyTrade observes a trade event.
	NotifyTrade(t *domain.Trade)

	// Stop finalizes the statistics.
	Stop()

	// Analysis returns the final name-to-value map.
	Analysis() map[string]float64
}

// ValueFunc supplies the portfolio value to value-tracking analyzers; it
// decouples them from the concrete broker.
type ValueFunc func() float64

// base carries the shared analysis map.
type base struct {
	analysis map[string]float64
}

func (b *base) reset() { b.analysis = make(map[string]float64) }

// Analysis returns the final statistics map.
func (b *base) Analysis() map[string]float64 { return b.analysis }

// NotifyTrade is a no-op for analyzers that only track value.
func (b *base) NotifyTrade(*domain.Trade) {}

// Next is a no-op for analyzers that only track trades.
func (b *base) Next() {}

func mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range a {
		s += v
	}
	return s / float64(len(a))
}

// stddev computes the standard deviation of a around its mean, population
// by default, sample when sample is true. Fewer than two values yield 0.
func stddev(a []float64, sample bool) float64 {
	if len(a) < 2 {
		return 0
	}
	m := mean(a)
	s := 0.0
	for _, v := range a {
		d := v - m
		s += d * d
	}
	n := float64(len(a))
	if sample {
		n--
	}
	return math.Sqrt(s / n)
}
