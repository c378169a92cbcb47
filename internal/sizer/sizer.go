// Package sizer implements the position-sizing policies strategies use when
// an order is placed without an explicit size.
package sizer

import (
	"math"

	"altair/internal/broker"
	"altair/internal/feed"
)

// Sizer maps account and market state to an integer order size.
type Sizer interface {
	// SizeFor returns the stake for a prospective order on d. Reversing
	// policies consult the broker for the current position.
	SizeFor(bk broker.Broker, comm broker.CommInfo, cash float64, d feed.Feed, isBuy bool) int
}

// price returns the current close of the feed, or 0 when unavailable.
func price(d feed.Feed) float64 {
	px := d.Lines().Close().Get(0)
	if math.IsNaN(px) {
		return 0
	}
	return px
}

// clampSize floors v into a non-negative integer, mapping NaN to zero.
func clampSize(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(math.Floor(v))
}

// reversing reports whether an order in the given direction would flip the
// current position on d.
func reversing(bk broker.Broker, d feed.Feed, isBuy bool) bool {
	pos := bk.Position(d.Name()).Size
	return (isBuy && pos < 0) || (!isBuy && pos > 0)
}

// Fixed returns a constant stake.
type Fixed struct {
	Stake int
}

// Compile-time interface check.
var _ Sizer = Fixed{}

// SizeFor implements Sizer.
func (s Fixed) SizeFor(_ broker.Broker, _ broker.CommInfo, _ float64, _ feed.Feed, _ bool) int {
	if s.Stake < 0 {
		return 0
	}
	return s.Stake
}

// FixedReverser returns the fixed stake, doubled when the order reverses
// the current position.
type FixedReverser struct {
	Stake int
}

// Compile-time interface check.
var _ Sizer = FixedReverser{}

// SizeFor implements Sizer.
func (s FixedReverser) SizeFor(bk broker.Broker, _ broker.CommInfo, _ float64, d feed.Feed, isBuy bool) int {
	if s.Stake <= 0 {
		return 0
	}
	if reversing(bk, d, isBuy) {
		return 2 * s.Stake
	}
	return s.Stake
}

// Percent sizes to a percentage of available cash.
type Percent struct {
	Percents float64
}

// Compile-time interface check.
var _ Sizer = Percent{}

// SizeFor implements Sizer.
func (s Percent) SizeFor(_ broker.Broker, _ broker.CommInfo, cash float64, d feed.Feed, _ bool) int {
	px := price(d)
	if px <= 0 {
		return 0
	}
	return clampSize(cash * s.Percents / 100.0 / px)
}

// PercentFrac is Percent without integer truncation; fractional sizes are
// returned rounded toward zero only at the final integer conversion by the
// caller. Float reports the raw size.
type PercentFrac struct {
	Percents float64
}

// Float returns the fractional size for callers that support it.
func (s PercentFrac) Float(cash float64, d feed.Feed) float64 {
	px := price(d)
	if px <= 0 {
		return 0
	}
	v := cash * s.Percents / 100.0 / px
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Compile-time interface check.
var _ Sizer = PercentFrac{}

// SizeFor implements Sizer.
func (s PercentFrac) SizeFor(_ broker.Broker, _ broker.CommInfo, cash float64, d feed.Feed, _ bool) int {
	return clampSize(s.Float(cash, d))
}

// PercentReverser is Percent with the stake doubled on reversal.
type PercentReverser struct {
	Percents float64
}

// Compile-time interface check.
var _ Sizer = PercentReverser{}

// SizeFor implements Sizer.
func (s PercentReverser) SizeFor(bk broker.Broker, _ broker.CommInfo, cash float64, d feed.Feed, isBuy bool) int {
	px := price(d)
	if px <= 0 {
		return 0
	}
	size := clampSize(cash * s.Percents / 100.0 / px)
	if reversing(bk, d, isBuy) {
		size *= 2
	}
	return size
}

// AllIn uses a fraction of all available cash, sized through the
// commission scheme so the order cost fits the cash actually used.
type AllIn struct {
	Percents float64 // default 100
}

// Compile-time interface check.
var _ Sizer = AllIn{}

// SizeFor implements Sizer.
func (s AllIn) SizeFor(_ broker.Broker, comm broker.CommInfo, cash float64, d feed.Feed, _ bool) int {
	px := price(d)
	if px <= 0 {
		return 0
	}
	pct := s.Percents
	if pct == 0 {
		pct = 100
	}
	useCash := cash * pct / 100.0
	if comm != nil {
		return comm.GetSize(px, useCash)
	}
	return clampSize(useCash / px)
}

// Risk sizes so that a stop-out loses at most RiskPct of cash: size =
// cash*risk% / (price*stop%).
type Risk struct {
	RiskPct float64 // max loss per trade as percent of cash
	StopPct float64 // stop distance as percent of entry price
}

// Compile-time interface check.
var _ Sizer = Risk{}

// SizeFor implements Sizer.
func (s Risk) SizeFor(_ broker.Broker, _ broker.CommInfo, cash float64, d feed.Feed, _ bool) int {
	px := price(d)
	if px <= 0 {
		return 0
	}
	stopDistance := px * s.StopPct / 100.0
	if stopDistance <= 0 {
		return 0
	}
	return clampSize(cash * s.RiskPct / 100.0 / stopDistance)
}

// Kelly sizes by the Kelly criterion K = W - (1-W)/R, scaled by Fraction
// and clamped to [0, MaxPercent] of cash.
type Kelly struct {
	WinRate    float64 // W, win probability
	WinLoss    float64 // R, average win / average loss
	Fraction   float64 // fraction of full Kelly (0.5 = half-Kelly)
	MaxPercent float64 // allocation cap, percent of cash
}

// Compile-time interface check.
var _ Sizer = Kelly{}

// SizeFor implements Sizer.
func (s Kelly) SizeFor(_ broker.Broker, _ broker.CommInfo, cash float64, d feed.Feed, _ bool) int {
	px := price(d)
	if px <= 0 || s.WinLoss <= 0 {
		return 0
	}
	kelly := s.WinRate - (1.0-s.WinRate)/s.WinLoss
	kelly *= s.Fraction
	pct := kelly * 100.0
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	if pct > s.MaxPercent {
		pct = s.MaxPercent
	}
	return clampSize(cash * pct / 100.0 / px)
}
