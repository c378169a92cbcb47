// Package builtins provides built-in strategy implementations that ship
// with the engine.
package builtins

import (
	"altair/internal/indicator"
	"altair/internal/params"
	"altair/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACross)(nil)

// SMACross implements a simple moving average crossover strategy. It goes
// long when the short-period SMA crosses above the long-period SMA and
// closes the long position when it crosses below; it never goes short.
type SMACross struct {
	strategy.Base

	fast  *indicator.SMA
	slow  *indicator.SMA
	cross *indicator.CrossOver
}

// NewSMACross creates a new SMACross strategy with the specified short and
// long moving average periods.
func NewSMACross(short, long int) *SMACross {
	s := &SMACross{}
	s.Params().Set("fast", params.Int(short))
	s.Params().Set("slow", params.Int(long))
	return s
}

// Init builds the moving averages and the crossover signal over data0's
// close line.
func (s *SMACross) Init() error {
	closeLine := s.Data0().Lines().Close()

	fast := s.Params().Int("fast", 10)
	slow := s.Params().Int("slow", 30)

	s.fast = indicator.NewSMA(closeLine, fast)
	s.slow = indicator.NewSMA(closeLine, slow)
	s.cross = indicator.NewCrossOver(s.fast.Lines().Line(0), s.slow.Lines().Line(0))

	s.AddIndicator(s.fast)
	s.AddIndicator(s.slow)
	s.AddIndicator(s.cross)
	return nil
}

// Next trades the crossover: cross up enters long, cross down closes any
// long position.
func (s *SMACross) Next() {
	switch s.cross.Value(0) {
	case 1:
		if s.PositionSize(nil) == 0 {
			s.Buy()
		}
	case -1:
		if s.PositionSize(nil) > 0 {
			s.ClosePosition(nil, 0)
		}
	}
}
