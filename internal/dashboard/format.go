// Package dashboard renders run and optimization results for the terminal:
// plain formatters, a lipgloss-styled report, and a live optimization
// progress view.
package dashboard

import (
	"fmt"
	"math"
	"strings"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatMoney formats a cash value with B/M/K suffixes for large amounts.
func FormatMoney(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case abs >= 1e5:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FormatPrice formats a price value, or "-" for zero/unset.
func FormatPrice(p float64) string {
	if p == 0 || math.IsNaN(p) || p == math.MaxFloat64 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatPct formats a signed percentage. Values at or beyond 100% drop the
// decimal to keep width compact.
func FormatPct(p float64) string {
	if math.IsNaN(p) {
		return "-"
	}
	if math.Abs(p) >= 100 {
		return fmt.Sprintf("%+.0f%%", p)
	}
	return fmt.Sprintf("%+.2f%%", p)
}

// FormatRatio formats a unitless ratio (Sharpe, profit factor), or "-"
// when undefined.
func FormatRatio(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
