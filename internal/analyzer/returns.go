package analyzer

import (
	"fmt"
	"math"

	"altair/internal/domain"
	"altair/internal/feed"
	"altair/internal/lines"
)

// Returns reports the total return over the run plus mean and standard
// deviation of per-bar returns, in percent.
type Returns struct {
	base

	value ValueFunc

	startValue float64
	prevValue  float64
	returns    []float64
}

// Compile-time interface check.
var _ Analyzer = (*Returns)(nil)

// NewReturns creates a Returns analyzer reading portfolio value through
// value.
func NewReturns(value ValueFunc) *Returns {
	return &Returns{value: value}
}

// Name implements Analyzer.
func (a *Returns) Name() string { return "returns" }

// Start implements Analyzer.
func (a *Returns) Start() {
	a.reset()
	a.startValue = a.value()
	a.prevValue = a.startValue
	a.returns = a.returns[:0]
}

// Next implements Analyzer.
func (a *Returns) Next() {
	current := a.value()
	if a.prevValue > 0 {
		a.returns = append(a.returns, (current-a.prevValue)/a.prevValue)
	}
	a.prevValue = current
}

// Stop implements Analyzer.
func (a *Returns) Stop() {
	end := a.value()
	if a.startValue > 0 {
		a.analysis["total_return"] = (end - a.startValue) / a.startValue * 100.0
	} else {
		a.analysis["total_return"] = 0
	}
	a.analysis["avg_return"] = mean(a.returns) * 100.0
	a.analysis["return_std"] = stddev(a.returns, false) * 100.0
}

// AnnualReturn reports the return of each calendar year spanned by the
// run, keyed "year_<YYYY>", plus the overall total. Years come from the
// bar datetimes of the reference feed.
type AnnualReturn struct {
	base

	value ValueFunc
	data  *lines.Data

	startValue float64
	yearStart  float64
	lastValue  float64
	year       int
}

// Compile-time interface check.
var _ Analyzer = (*AnnualReturn)(nil)

// NewAnnualReturn creates an AnnualReturn analyzer over the reference
// feed's datetime line.
func NewAnnualReturn(value ValueFunc, data feed.Feed) *AnnualReturn {
	return &AnnualReturn{value: value, data: data.Lines()}
}

// Name implements Analyzer.
func (a *AnnualReturn) Name() string { return "annual_return" }

// Start implements Analyzer.
func (a *AnnualReturn) Start() {
	a.reset()
	a.startValue = a.value()
	a.yearStart = a.startValue
	a.lastValue = a.startValue
	a.year = 0
}

// Next implements Analyzer. A calendar-year roll closes the previous year
// at the last value observed inside it.
func (a *AnnualReturn) Next() {
	dt := a.data.Datetime().Get(0)
	if math.IsNaN(dt) {
		return
	}
	year := feed.NumToTime(dt).Year()
	v := a.value()

	if a.year == 0 {
		a.year = year
		a.lastValue = v
		return
	}
	if year != a.year {
		a.closeYear()
		a.year = year
	}
	a.lastValue = v
}

func (a *AnnualReturn) closeYear() {
	if a.yearStart > 0 {
		key := fmt.Sprintf("year_%d", a.year)
		a.analysis[key] = (a.lastValue - a.yearStart) / a.yearStart * 100.0
	}
	a.yearStart = a.lastValue
}

// Stop implements Analyzer.
func (a *AnnualReturn) Stop() {
	if a.year != 0 {
		a.closeYear()
	}
	if a.startValue > 0 {
		a.analysis["total_return"] = (a.lastValue - a.startValue) / a.startValue * 100.0
	} else {
		a.analysis["total_return"] = 0
	}
}

// SQN computes Van Tharp's system quality number over closed-trade P&L:
// sqrt(n) * mean(pnl) / sample_std(pnl).
type SQN struct {
	base

	pnls []float64
}

// Compile-time interface check.
var _ Analyzer = (*SQN)(nil)

// NewSQN creates an SQN analyzer.
func NewSQN() *SQN { return &SQN{} }

// Name implements Analyzer.
func (a *SQN) Name() string { return "sqn" }

// Start implements Analyzer.
func (a *SQN) Start() {
	a.reset()
	a.pnls = a.pnls[:0]
}

// NotifyTrade implements Analyzer.
func (a *SQN) NotifyTrade(t *domain.Trade) {
	if !t.IsOpen {
		a.pnls = append(a.pnls, t.PnLComm)
	}
}

// Stop implements Analyzer.
func (a *SQN) Stop() {
	a.analysis["trades"] = float64(len(a.pnls))
	if len(a.pnls) < 2 {
		a.analysis["sqn"] = 0
		return
	}
	std := stddev(a.pnls, true)
	if std == 0 {
		a.analysis["sqn"] = 0
		return
	}
	a.analysis["sqn"] = math.Sqrt(float64(len(a.pnls))) * mean(a.pnls) / std
}
