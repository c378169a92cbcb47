package dashboard

import (
	"math"
	"strings"
	"testing"

	"altair/internal/cerebro"
	"altair/internal/params"
)

func TestFormatInt(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, c := range cases {
		if got := FormatInt(c.in); got != c.want {
			t.Errorf("FormatInt(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(1234.5); got != "1234.50" {
		t.Errorf("FormatMoney = %q", got)
	}
	if got := FormatMoney(2.5e6); got != "2.50M" {
		t.Errorf("FormatMoney = %q", got)
	}
	if got := FormatMoney(1.2e9); got != "1.20B" {
		t.Errorf("FormatMoney = %q", got)
	}
}

func TestFormatPctAndRatio(t *testing.T) {
	if got := FormatPct(12.345); got != "+12.35%" {
		t.Errorf("FormatPct = %q", got)
	}
	if got := FormatPct(-150.0); got != "-150%" {
		t.Errorf("FormatPct = %q", got)
	}
	if got := FormatPct(math.NaN()); got != "-" {
		t.Errorf("FormatPct(NaN) = %q", got)
	}
	if got := FormatRatio(math.NaN()); got != "-" {
		t.Errorf("FormatRatio(NaN) = %q", got)
	}
}

func TestRenderRunContainsFigures(t *testing.T) {
	res := &cerebro.RunResult{
		StartCash:   100000,
		EndCash:     100489.5,
		EndValue:    100489.5,
		PnL:         489.5,
		PnLPct:      0.4895,
		TotalBars:   20,
		TotalTrades: 1,
		Analysis: map[string]map[string]float64{
			"sharpe": {"sharpe_ratio": 1.25},
		},
	}
	out := RenderRun("sma-cross", res)

	for _, want := range []string{"sma-cross", "489.50", "sharpe_ratio", "1.25"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOptTable(t *testing.T) {
	p := params.New()
	p.Set("fast", params.Int(5))
	results := []cerebro.OptResult{
		{Params: p, FinalValue: 101000, PnLPct: 1.0, SharpeRatio: 0.5, MaxDrawdown: 2, TotalTrades: 3, WinRate: 66.7},
	}
	out := RenderOptTable(results, 10)
	if !strings.Contains(out, "fast=5") {
		t.Errorf("table missing params column:\n%s", out)
	}
	if !strings.Contains(out, "trades") {
		t.Errorf("table missing header:\n%s", out)
	}
}
