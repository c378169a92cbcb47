package strategy

import (
	"testing"
	"time"

	"altair/internal/broker"
	"altair/internal/domain"
	"altair/internal/feed"
	"altair/internal/sizer"
)

// noopStrategy is a bare strategy for exercising the Base API.
type noopStrategy struct {
	Base
}

func newTestStrategy(px float64, bars int) (*noopStrategy, *broker.BacktestBroker, *feed.MemoryFeed) {
	prices := make([]feed.Bar, bars)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range prices {
		prices[i] = feed.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      px, High: px, Low: px, Close: px, Volume: 1e6,
		}
	}
	f := feed.NewMemoryFeedFromBars("acme", prices)
	f.Lines().Seek(0)

	bk := broker.NewBacktestBroker(broker.DefaultParams())
	bk.AddFeed(f)

	s := &noopStrategy{}
	s.Setup(s, bk)
	s.AddData(f)
	return s, bk, f
}

// settle runs one matching pass at bar i.
func settle(bk *broker.BacktestBroker, f *feed.MemoryFeed, i int) {
	f.Lines().Seek(i)
	bk.SetBar(i, f.Lines().Datetime().Get(0))
	bk.Next()
}

func TestBuyUsesSizer(t *testing.T) {
	s, bk, f := newTestStrategy(100, 3)
	s.SetSizer(sizer.Fixed{Stake: 7})

	o := s.Buy()
	if o == nil {
		t.Fatal("Buy returned nil")
	}
	if o.Size != 7 {
		t.Errorf("order size = %v, want sizer's 7", o.Size)
	}

	settle(bk, f, 1)
	if got := s.PositionSize(nil); got != 7 {
		t.Errorf("position = %v, want 7", got)
	}
}

func TestOrderTargetSize(t *testing.T) {
	s, bk, f := newTestStrategy(100, 6)

	s.OrderTargetSize(nil, 10)
	settle(bk, f, 1)
	if got := s.PositionSize(nil); got != 10 {
		t.Fatalf("position = %v, want 10", got)
	}

	// Reaching down to 4 sells 6.
	o := s.OrderTargetSize(nil, 4)
	if o == nil || o.Side != domain.OrderSideSell || o.Size != 6 {
		t.Fatalf("delta order = %+v, want sell 6", o)
	}
	settle(bk, f, 2)
	if got := s.PositionSize(nil); got != 4 {
		t.Errorf("position = %v, want 4", got)
	}

	// Already at target: nothing to do.
	if o := s.OrderTargetSize(nil, 4); o != nil {
		t.Errorf("order at target = %+v, want nil", o)
	}

	// Crossing to -2 sells 6.
	o = s.OrderTargetSize(nil, -2)
	if o == nil || o.Size != 6 {
		t.Fatalf("crossing order = %+v, want sell 6", o)
	}
	settle(bk, f, 3)
	if got := s.PositionSize(nil); got != -2 {
		t.Errorf("position = %v, want -2", got)
	}
}

func TestOrderTargetValueAndPercent(t *testing.T) {
	s, bk, f := newTestStrategy(100, 4)

	// Target $2000 at price 100 → buy 20.
	o := s.OrderTargetValue(nil, 2000)
	if o == nil || o.Size != 20 {
		t.Fatalf("target value order = %+v, want buy 20", o)
	}
	settle(bk, f, 1)

	// 10% of 100000 portfolio = 10000 → target 100 shares; currently 20.
	o = s.OrderTargetPercent(nil, 10)
	if o == nil || o.Side != domain.OrderSideBuy || o.Size != 80 {
		t.Fatalf("target percent order = %+v, want buy 80", o)
	}
}

func TestClosePosition(t *testing.T) {
	s, bk, f := newTestStrategy(50, 4)

	if o := s.ClosePosition(nil, 0); o != nil {
		t.Errorf("close on flat position = %+v, want nil", o)
	}

	s.BuyOrder(nil, 5, domain.OrderTypeMarket, 0)
	settle(bk, f, 1)
	o := s.ClosePosition(nil, 0)
	if o == nil || o.Side != domain.OrderSideSell || o.Size != 5 {
		t.Fatalf("close order = %+v, want sell 5", o)
	}
	settle(bk, f, 2)
	if got := s.PositionSize(nil); got != 0 {
		t.Errorf("position = %v, want 0", got)
	}
}

func TestBuyBracketBuildsGroup(t *testing.T) {
	s, _, _ := newTestStrategy(100, 4)

	cfg := NewBracketConfig()
	cfg.Size = 2
	cfg.StopPrice = 95
	cfg.LimitPrice = 110

	main, stop, limit := s.BuyBracket(nil, cfg)
	if main == nil || stop == nil || limit == nil {
		t.Fatal("bracket returned nil orders")
	}
	if stop.Parent != main || limit.Parent != main {
		t.Error("children not linked to the parent")
	}
	if stop.OCO != limit || limit.OCO != stop {
		t.Error("children not linked OCO")
	}
	if stop.Side != domain.OrderSideSell || limit.Side != domain.OrderSideSell {
		t.Error("buy bracket children must sell")
	}
	if main.Transmit {
		t.Error("parent of a full bracket must hold transmission")
	}
	if !limit.Transmit {
		t.Error("last child must transmit the group")
	}
}

func TestBracketOmittedChild(t *testing.T) {
	s, _, _ := newTestStrategy(100, 4)

	cfg := NewBracketConfig()
	cfg.Size = 1
	cfg.StopPrice = 95 // no limit child

	main, stop, limit := s.BuyBracket(nil, cfg)
	if main == nil || stop == nil {
		t.Fatal("bracket returned nil main/stop")
	}
	if limit != nil {
		t.Errorf("limit = %+v, want nil when price omitted", limit)
	}
	if !stop.Transmit {
		t.Error("stop must transmit when it is the last child")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", func() Strategy { return &noopStrategy{} })

	if _, ok := r.Get("noop"); !ok {
		t.Error("Get(noop) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
	names := r.List()
	if len(names) != 1 || names[0] != "noop" {
		t.Errorf("List() = %v, want [noop]", names)
	}
}
