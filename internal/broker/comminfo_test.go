package broker

import (
	"math"
	"testing"
)

func TestStockCommissionPercAbs(t *testing.T) {
	ci := NewStockComm(0.001, true)

	if got := ci.Commission(100, 50); math.Abs(got-5.0) > 1e-12 {
		t.Errorf("Commission(100, 50) = %v, want 5", got)
	}
	// Side is irrelevant for the symmetric scheme.
	if got := ci.Commission(-100, 55); math.Abs(got-5.5) > 1e-12 {
		t.Errorf("Commission(-100, 55) = %v, want 5.5", got)
	}
}

func TestStockCommissionPercRelative(t *testing.T) {
	// 0.1 means 0.1% when percabs is false.
	ci := NewStockComm(0.1, false)
	if got := ci.Commission(100, 50); math.Abs(got-5.0) > 1e-12 {
		t.Errorf("Commission(100, 50) = %v, want 5", got)
	}
}

func TestFuturesMarginAndCashAdjust(t *testing.T) {
	ci := NewFuturesComm(2.0, 2000, 50)

	if got := ci.Margin(4000); got != 2000 {
		t.Errorf("Margin = %v, want stored 2000", got)
	}
	if got := ci.Commission(3, 4000); got != 6 {
		t.Errorf("Commission = %v, want 6 (fixed per contract)", got)
	}
	// Futures pay nothing at open; cash moves by realized P&L at close.
	if got := ci.CashAdjustOpen(2, 4000); got != 0 {
		t.Errorf("CashAdjustOpen = %v, want 0", got)
	}
	// Closing 2 contracts bought at 4000, exiting at 4010: P&L = 2*50*10.
	if got := ci.CashAdjustClose(-2, 4000, 4010); got != 1000 {
		t.Errorf("CashAdjustClose = %v, want 1000", got)
	}
}

func TestAutoMargin(t *testing.T) {
	ci := NewForexComm(100, 0)
	if got := ci.Margin(1.25); math.Abs(got-0.0125) > 1e-12 {
		t.Errorf("Margin = %v, want price/leverage = 0.0125", got)
	}
}

func TestInterest(t *testing.T) {
	ci := NewStockComm(0, true)
	ci.InterestRate = 0.0365 // 3.65% → 0.01% per day

	// Shorts always pay.
	if got := ci.Interest(-100, 50, 2); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("short interest = %v, want 1.0", got)
	}
	// Longs only pay when enabled.
	if got := ci.Interest(100, 50, 2); got != 0 {
		t.Errorf("long interest = %v, want 0", got)
	}
	ci.InterestLong = true
	if got := ci.Interest(100, 50, 2); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("long interest (enabled) = %v, want 1.0", got)
	}
}

func TestGetSizePercentage(t *testing.T) {
	ci := NewStockComm(0.001, true)
	// 10000 / (100 * 1.001) = 99.9 → 99 shares.
	if got := ci.GetSize(100, 10000); got != 99 {
		t.Errorf("GetSize = %d, want 99", got)
	}
	if got := ci.GetSize(0, 10000); got != 0 {
		t.Errorf("GetSize at zero price = %d, want 0", got)
	}
}

func TestGetSizeFixedCommissionBacksOff(t *testing.T) {
	ci := &CommScheme{Rate: 1.0, Type: CommFixed, StockLike: true, Mult: 1}
	// 100 shares at 100 costs 10000 + 100 commission > 10000 cash.
	got := ci.GetSize(100, 10000)
	if got != 99 {
		t.Errorf("GetSize = %d, want 99", got)
	}
	cost := float64(got)*100 + ci.Commission(float64(got), 100)
	if cost > 10000 {
		t.Errorf("cost %v exceeds cash", cost)
	}
}

func TestGetSizeFutures(t *testing.T) {
	ci := NewFuturesComm(2.0, 2000, 50)
	if got := ci.GetSize(4000, 10000); got != 5 {
		t.Errorf("GetSize = %d, want 5 (margin-based)", got)
	}
}

func TestFlatAndOptions(t *testing.T) {
	flat := NewFlatComm(4.95)
	if got := flat.Commission(1000, 10); got != 4.95 {
		t.Errorf("flat Commission = %v, want 4.95", got)
	}

	opt := NewOptionsComm(0.65)
	if got := opt.ValueSize(2, 3.50); got != 700 {
		t.Errorf("options ValueSize = %v, want 700 (mult 100)", got)
	}
	if got := opt.Commission(2, 3.50); math.Abs(got-1.30) > 1e-12 {
		t.Errorf("options Commission = %v, want 1.30", got)
	}
}

func TestBuySellAsymmetric(t *testing.T) {
	ci := NewBuySellComm(0.001, 0.002, true)
	if got := ci.Commission(100, 50); math.Abs(got-5.0) > 1e-12 {
		t.Errorf("buy Commission = %v, want 5", got)
	}
	if got := ci.Commission(-100, 50); math.Abs(got-10.0) > 1e-12 {
		t.Errorf("sell Commission = %v, want 10", got)
	}
}

func TestIBTiered(t *testing.T) {
	ci := NewIBComm()

	// Small order hits the per-order minimum.
	if got := ci.Commission(100, 50); got != 1.0 {
		t.Errorf("small order = %v, want min 1.0", got)
	}
	// Large order pays per share.
	if got := ci.Commission(10000, 50); got != 50 {
		t.Errorf("large order = %v, want 50", got)
	}
	// Penny stock order caps at percent of value: 1000 sh * 0.10 = $100
	// value, cap = 0.5% = 0.50.
	if got := ci.Commission(1000, 0.10); math.Abs(got-0.50) > 1e-12 {
		t.Errorf("penny order = %v, want cap 0.50", got)
	}
}
