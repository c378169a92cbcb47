package strategy

import (
	"math"

	"altair/internal/domain"
)

// SignalType classifies how a signal line's value is interpreted.
type SignalType int

// Signal types. Entry types act on the sign of the value (or any non-zero
// value for the *Any variants); exit types request leaving an open
// position.
const (
	SignalNone SignalType = iota
	SignalLongShort
	SignalLong
	SignalLongInv
	SignalLongAny
	SignalShort
	SignalShortInv
	SignalShortAny
	SignalLongExit
	SignalLongExitInv
	SignalLongExitAny
	SignalShortExit
	SignalShortExitInv
	SignalShortExitAny
)

var signalNames = map[SignalType]string{
	SignalNone:         "none",
	SignalLongShort:    "long_short",
	SignalLong:         "long",
	SignalLongInv:      "long_inv",
	SignalLongAny:      "long_any",
	SignalShort:        "short",
	SignalShortInv:     "short_inv",
	SignalShortAny:     "short_any",
	SignalLongExit:     "long_exit",
	SignalLongExitInv:  "long_exit_inv",
	SignalLongExitAny:  "long_exit_any",
	SignalShortExit:    "short_exit",
	SignalShortExitInv: "short_exit_inv",
	SignalShortExitAny: "short_exit_any",
}

// String returns the lowercase name of the signal type.
func (t SignalType) String() string {
	if n, ok := signalNames[t]; ok {
		return n
	}
	return "unknown"
}

// IsLongEntry reports whether the type can open long positions.
func (t SignalType) IsLongEntry() bool {
	switch t {
	case SignalLongShort, SignalLong, SignalLongInv, SignalLongAny:
		return true
	}
	return false
}

// IsShortEntry reports whether the type can open short positions.
func (t SignalType) IsShortEntry() bool {
	switch t {
	case SignalLongShort, SignalShort, SignalShortInv, SignalShortAny:
		return true
	}
	return false
}

// IsLongExit reports whether the type closes long positions.
func (t SignalType) IsLongExit() bool {
	switch t {
	case SignalLongExit, SignalLongExitInv, SignalLongExitAny:
		return true
	}
	return false
}

// IsShortExit reports whether the type closes short positions.
func (t SignalType) IsShortExit() bool {
	switch t {
	case SignalShortExit, SignalShortExitInv, SignalShortExitAny:
		return true
	}
	return false
}

// Evaluate interprets value v under signal type t: 1 signals long action,
// -1 short action, 0 nothing. Zero and NaN values never trigger, except
// that the *Any types trigger on any non-zero value.
func Evaluate(v float64, t SignalType) int {
	if v == 0 || math.IsNaN(v) {
		return 0
	}
	switch t {
	case SignalLongShort:
		if v > 0 {
			return 1
		}
		return -1
	case SignalLong:
		if v > 0 {
			return 1
		}
	case SignalLongInv:
		if v < 0 {
			return 1
		}
	case SignalLongAny:
		return 1
	case SignalShort:
		if v < 0 {
			return -1
		}
	case SignalShortInv:
		if v > 0 {
			return -1
		}
	case SignalShortAny:
		return -1
	case SignalLongExit:
		if v < 0 {
			return 1
		}
	case SignalLongExitInv:
		if v > 0 {
			return 1
		}
	case SignalLongExitAny:
		return 1
	case SignalShortExit:
		if v > 0 {
			return -1
		}
	case SignalShortExitInv:
		if v < 0 {
			return -1
		}
	case SignalShortExitAny:
		return -1
	}
	return 0
}

// SignalLine is any cursor-indexed line a signal can read, typically an
// indicator output line.
type SignalLine interface {
	Get(k int) float64
}

// signalRef pairs a line with its interpretation.
type signalRef struct {
	line SignalLine
	typ  SignalType
}

// Group aggregates signal lines and answers entry/exit queries against the
// current bar.
type Group struct {
	refs []signalRef
}

// Add registers a line under a signal type.
func (g *Group) Add(line SignalLine, typ SignalType) {
	g.refs = append(g.refs, signalRef{line: line, typ: typ})
}

// Len returns the number of registered signals.
func (g *Group) Len() int { return len(g.refs) }

// HasLongEntry reports whether any long-entry signal fires on the current
// bar.
func (g *Group) HasLongEntry() bool {
	for _, r := range g.refs {
		if r.typ.IsLongEntry() && Evaluate(r.line.Get(0), r.typ) > 0 {
			return true
		}
	}
	return false
}

// HasShortEntry reports whether any short-entry signal fires.
func (g *Group) HasShortEntry() bool {
	for _, r := range g.refs {
		if r.typ.IsShortEntry() && Evaluate(r.line.Get(0), r.typ) < 0 {
			return true
		}
	}
	return false
}

// HasLongExit reports whether any long-exit signal fires.
func (g *Group) HasLongExit() bool {
	for _, r := range g.refs {
		if r.typ.IsLongExit() && Evaluate(r.line.Get(0), r.typ) != 0 {
			return true
		}
	}
	return false
}

// HasShortExit reports whether any short-exit signal fires.
func (g *Group) HasShortExit() bool {
	for _, r := range g.refs {
		if r.typ.IsShortExit() && Evaluate(r.line.Get(0), r.typ) != 0 {
			return true
		}
	}
	return false
}

// AccumMode restricts which directions a signal strategy may hold.
type AccumMode int

// Accumulation modes.
const (
	LongShort AccumMode = iota
	LongOnly
	ShortOnly
)

// SignalStrategy trades the registered signal group mechanically: exits
// first, then entries under the accumulation policy. ExitOnOpposite makes
// an opposing entry close the standing position before (or instead of)
// reversing.
type SignalStrategy struct {
	Base

	Mode           AccumMode
	ExitOnOpposite bool
	Stake          float64
}

// NewSignalStrategy returns a signal strategy with conventional defaults.
func NewSignalStrategy() *SignalStrategy {
	return &SignalStrategy{ExitOnOpposite: true, Stake: 1}
}

// Next implements Strategy.
func (s *SignalStrategy) Next() {
	d := s.Data0()
	if d == nil {
		return
	}
	pos := s.PositionSize(d)
	sig := s.Signals()

	// Exits first.
	if pos > 0 && sig.HasLongExit() {
		s.ClosePosition(d, 0)
		pos = 0
	} else if pos < 0 && sig.HasShortExit() {
		s.ClosePosition(d, 0)
		pos = 0
	}

	long := s.Mode != ShortOnly && sig.HasLongEntry()
	short := s.Mode != LongOnly && sig.HasShortEntry()
	if long == short {
		return // nothing, or conflicting signals cancel out
	}

	stake := s.Stake
	if stake <= 0 {
		stake = 1
	}

	if long {
		switch {
		case pos < 0 && s.ExitOnOpposite:
			s.OrderTargetSize(d, 0)
		case pos < 0:
			s.OrderTargetSize(d, stake)
		case pos == 0:
			s.BuyOrder(d, stake, domain.OrderTypeMarket, 0)
		}
		return
	}

	switch {
	case pos > 0 && s.ExitOnOpposite:
		s.OrderTargetSize(d, 0)
	case pos > 0:
		s.OrderTargetSize(d, -stake)
	case pos == 0:
		s.SellOrder(d, stake, domain.OrderTypeMarket, 0)
	}
}
