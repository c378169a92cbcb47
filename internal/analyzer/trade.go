package analyzer

import "altair/internal/domain"

// profitFactorCap is reported when there are wins but no losses.
const profitFactorCap = 999.99

// TradeAnalyzer aggregates closed-trade statistics: counts, gross
// profit/loss, win rate, averages, profit factor, and streaks.
type TradeAnalyzer struct {
	base

	total int
	won   int
	lost  int

	grossProfit float64
	grossLoss   float64

	streak     int
	lastWasWin bool
	haveStreak bool
	maxWin     int
	maxLoss    int
}

// Compile-time interface check.
var _ Analyzer = (*TradeAnalyzer)(nil)

// NewTradeAnalyzer creates a TradeAnalyzer.
func NewTradeAnalyzer() *TradeAnalyzer { return &TradeAnalyzer{} }

// Name implements Analyzer.
func (a *TradeAnalyzer) Name() string { return "trades" }

// Start implements Analyzer.
func (a *TradeAnalyzer) Start() {
	a.reset()
	a.total, a.won, a.lost = 0, 0, 0
	a.grossProfit, a.grossLoss = 0, 0
	a.streak, a.maxWin, a.maxLoss = 0, 0, 0
	a.haveStreak = false
}

// NotifyTrade implements Analyzer; only closed trades count.
func (a *TradeAnalyzer) NotifyTrade(t *domain.Trade) {
	if t.IsOpen {
		return
	}
	a.total++

	switch {
	case t.PnLComm > 0:
		a.won++
		a.grossProfit += t.PnLComm
		if a.haveStreak && a.lastWasWin {
			a.streak++
		} else {
			a.streak = 1
			a.lastWasWin = true
			a.haveStreak = true
		}
		if a.streak > a.maxWin {
			a.maxWin = a.streak
		}

	case t.PnLComm < 0:
		a.lost++
		a.grossLoss += -t.PnLComm
		if a.haveStreak && !a.lastWasWin {
			a.streak++
		} else {
			a.streak = 1
			a.lastWasWin = false
			a.haveStreak = true
		}
		if a.streak > a.maxLoss {
			a.maxLoss = a.streak
		}
	}
}

// Stop implements Analyzer.
func (a *TradeAnalyzer) Stop() {
	a.analysis["total_trades"] = float64(a.total)
	a.analysis["won_trades"] = float64(a.won)
	a.analysis["lost_trades"] = float64(a.lost)
	a.analysis["gross_profit"] = a.grossProfit
	a.analysis["gross_loss"] = a.grossLoss
	a.analysis["net_profit"] = a.grossProfit - a.grossLoss

	if a.total > 0 {
		a.analysis["win_rate"] = float64(a.won) / float64(a.total) * 100.0
		a.analysis["avg_trade"] = (a.grossProfit - a.grossLoss) / float64(a.total)
	} else {
		a.analysis["win_rate"] = 0
		a.analysis["avg_trade"] = 0
	}

	if a.won > 0 {
		a.analysis["avg_win"] = a.grossProfit / float64(a.won)
	} else {
		a.analysis["avg_win"] = 0
	}
	if a.lost > 0 {
		a.analysis["avg_loss"] = a.grossLoss / float64(a.lost)
	} else {
		a.analysis["avg_loss"] = 0
	}

	switch {
	case a.grossLoss > 0:
		a.analysis["profit_factor"] = a.grossProfit / a.grossLoss
	case a.grossProfit > 0:
		a.analysis["profit_factor"] = profitFactorCap
	default:
		a.analysis["profit_factor"] = 0
	}

	a.analysis["max_win_streak"] = float64(a.maxWin)
	a.analysis["max_loss_streak"] = float64(a.maxLoss)
}
