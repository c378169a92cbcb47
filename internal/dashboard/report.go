package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"altair/internal/cerebro"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
)

func pnlStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lossStyle
	}
	return gainStyle
}

// RenderRun renders a single run result as a styled report.
func RenderRun(name string, res *cerebro.RunResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("backtest: "+name) + "\n\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label)), value))
	}

	row("start cash", FormatMoney(res.StartCash))
	row("end cash", FormatMoney(res.EndCash))
	row("end value", FormatMoney(res.EndValue))
	row("pnl", pnlStyle(res.PnL).Render(FormatMoney(res.PnL)))
	row("pnl %", pnlStyle(res.PnLPct).Render(FormatPct(res.PnLPct)))
	row("bars", FormatInt(res.TotalBars))
	row("trades", FormatInt(res.TotalTrades))

	names := make([]string, 0, len(res.Analysis))
	for n := range res.Analysis {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		b.WriteString("\n" + titleStyle.Render(n) + "\n")
		keys := make([]string, 0, len(res.Analysis[n]))
		for k := range res.Analysis[n] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row(k, FormatRatio(res.Analysis[n][k]))
		}
	}
	return b.String()
}

// RenderOptTable renders optimization results as an aligned table, best
// first.
func RenderOptTable(results []cerebro.OptResult, top int) string {
	if top <= 0 || top > len(results) {
		top = len(results)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"%-28s %12s %10s %8s %8s %7s %8s",
		"params", "final", "pnl%", "sharpe", "maxdd%", "trades", "winrate")) + "\n")

	for _, r := range results[:top] {
		b.WriteString(fmt.Sprintf("%-28s %12s %10s %8s %8s %7d %8s\n",
			renderParams(r),
			FormatMoney(r.FinalValue),
			pnlStyle(r.PnLPct).Render(FormatPct(r.PnLPct)),
			FormatRatio(r.SharpeRatio),
			FormatRatio(r.MaxDrawdown),
			r.TotalTrades,
			FormatPct(r.WinRate)))
	}
	return b.String()
}

func renderParams(r cerebro.OptResult) string {
	if r.Params == nil {
		return "-"
	}
	var parts []string
	for _, k := range r.Params.Keys() {
		v, _ := r.Params.Get(k)
		parts = append(parts, k+"="+v.String())
	}
	return strings.Join(parts, " ")
}
