package analyzer

import "math"

// SharpeRatio computes the Sharpe ratio of per-bar portfolio returns:
// (mean(r) - rf/N) / std(r), optionally annualized by sqrt(N).
type SharpeRatio struct {
	base

	// RiskFree is the annual risk-free rate as a decimal.
	RiskFree float64
	// TradingDays is the bars-per-year assumption N (default 252).
	TradingDays int
	// Annualize multiplies by sqrt(TradingDays).
	Annualize bool
	// SampleStd switches from population to sample standard deviation.
	SampleStd bool

	value     ValueFunc
	prevValue float64
	returns   []float64
}

// Compile-time interface check.
var _ Analyzer = (*SharpeRatio)(nil)

// NewSharpeRatio creates a SharpeRatio analyzer reading portfolio value
// through value.
func NewSharpeRatio(value ValueFunc) *SharpeRatio {
	return &SharpeRatio{value: value, TradingDays: 252}
}

// Name implements Analyzer.
func (a *SharpeRatio) Name() string { return "sharpe" }

// Start implements Analyzer.
func (a *SharpeRatio) Start() {
	a.reset()
	a.returns = a.returns[:0]
	a.prevValue = a.value()
}

// Next implements Analyzer.
func (a *SharpeRatio) Next() {
	current := a.value()
	if a.prevValue > 0 {
		a.returns = append(a.returns, (current-a.prevValue)/a.prevValue)
	}
	a.prevValue = current
}

// Stop implements Analyzer. Fewer than two returns yield a ratio of 0. A
// zero standard deviation (a constant return series, where rounding leaves
// only a negligible std) yields +Inf or -Inf by the sign of the excess
// return, and 0 when the excess return is 0.
func (a *SharpeRatio) Stop() {
	if len(a.returns) < 2 {
		a.analysis["sharpe_ratio"] = 0
		return
	}

	days := a.TradingDays
	if days <= 0 {
		days = 252
	}

	avg := mean(a.returns)
	std := stddev(a.returns, a.SampleStd)
	excess := avg - a.RiskFree/float64(days)
	if std <= 1e-10*math.Abs(avg) {
		switch {
		case excess > 0:
			a.analysis["sharpe_ratio"] = math.Inf(1)
		case excess < 0:
			a.analysis["sharpe_ratio"] = math.Inf(-1)
		default:
			a.analysis["sharpe_ratio"] = 0
		}
		return
	}

	sharpe := excess / std
	if a.Annualize {
		sharpe *= math.Sqrt(float64(days))
	}
	a.analysis["sharpe_ratio"] = sharpe
}
