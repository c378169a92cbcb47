package observer

import (
	"math"
	"testing"
	"time"

	"altair/internal/broker"
	"altair/internal/domain"
	"altair/internal/feed"
)

func flatFeed(name string, closes []float64) *feed.MemoryFeed {
	bars := make([]feed.Bar, len(closes))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = feed.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c, Volume: 1e6,
		}
	}
	return feed.NewMemoryFeedFromBars(name, bars)
}

func TestCashValueObservers(t *testing.T) {
	f := flatFeed("acme", []float64{100, 100, 110})
	bk := broker.NewBacktestBroker(broker.DefaultParams())
	bk.AddFeed(f)

	cash := NewCash(bk)
	value := NewValue(bk)
	cash.Start()
	value.Start()

	for i := 0; i < 3; i++ {
		f.Lines().Seek(i)
		bk.SetBar(i, f.Lines().Datetime().Get(0))
		bk.Next()
		if i == 0 {
			bk.Buy("acme", 10, domain.OrderTypeMarket, 0)
		}
		cash.Next()
		value.Next()
	}

	if cash.Lines().Line(0).Size() != 3 {
		t.Fatalf("cash line size = %d, want 3", cash.Lines().Line(0).Size())
	}
	// Bar 0: order not yet matched, cash intact.
	if got := cash.Lines().Line(0).Get(2); got != 100000 {
		t.Errorf("cash[0] = %v, want 100000", got)
	}
	// Bar 1 on: 10 shares at 100.
	if got := cash.Lines().Line(0).Get(0); got != 99000 {
		t.Errorf("cash[2] = %v, want 99000", got)
	}
	// Value marks the position at bar 2's close of 110.
	if got := value.Lines().Line(0).Get(0); got != 99000+1100 {
		t.Errorf("value[2] = %v, want 100100", got)
	}
}

func TestBuySellObserverMarksFillBars(t *testing.T) {
	f := flatFeed("acme", []float64{100, 101, 102})
	bk := broker.NewBacktestBroker(broker.DefaultParams())
	bk.AddFeed(f)

	obs := NewBuySell(bk)
	obs.Start()

	for i := 0; i < 3; i++ {
		f.Lines().Seek(i)
		bk.SetBar(i, f.Lines().Datetime().Get(0))
		bk.Next()
		for _, o := range bk.PopOrderNotifications() {
			obs.NotifyOrder(o)
		}
		if i == 0 {
			bk.Buy("acme", 1, domain.OrderTypeMarket, 0)
		}
		obs.Next()
	}

	buyLine := obs.Lines().Line(0)
	// Fill happened on bar 1 at open 101.
	if got := buyLine.Get(1); got != 101 {
		t.Errorf("buy mark at bar 1 = %v, want 101", got)
	}
	if got := buyLine.Get(0); !math.IsNaN(got) {
		t.Errorf("buy mark at bar 2 = %v, want NaN", got)
	}
	if got := buyLine.Get(2); !math.IsNaN(got) {
		t.Errorf("buy mark at bar 0 = %v, want NaN", got)
	}
}

func TestDrawDownObserver(t *testing.T) {
	f := flatFeed("acme", []float64{100, 100, 100})
	bk := broker.NewBacktestBroker(broker.DefaultParams())
	bk.AddFeed(f)

	obs := NewDrawDown(bk)
	obs.Start()
	obs.Next()

	if got := obs.Lines().Line(0).Get(0); got != 0 {
		t.Errorf("drawdown with no trades = %v, want 0", got)
	}
}

func TestReturnsObserver(t *testing.T) {
	f := flatFeed("acme", []float64{100, 100, 110})
	bk := broker.NewBacktestBroker(broker.DefaultParams())
	bk.AddFeed(f)

	obs := NewReturns(bk)
	logObs := NewLogReturns(bk)
	obs.Start()
	logObs.Start()

	for i := 0; i < 3; i++ {
		f.Lines().Seek(i)
		bk.SetBar(i, f.Lines().Datetime().Get(0))
		bk.Next()
		if i == 0 {
			bk.Buy("acme", 100, domain.OrderTypeMarket, 0)
		}
		obs.Next()
		logObs.Next()
	}

	// Bar 2: value moves from 100000 to 101000.
	if got := obs.Lines().Line(0).Get(0); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("return = %v, want 0.01", got)
	}
	if got := logObs.Lines().Line(0).Get(0); math.Abs(got-math.Log(1.01)) > 1e-12 {
		t.Errorf("log return = %v, want ln(1.01)", got)
	}
}
