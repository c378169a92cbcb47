package cerebro

import (
	"math"
	"testing"
	"time"

	"altair/internal/analyzer"
	"altair/internal/broker"
	"altair/internal/feed"
	"altair/internal/params"
	"altair/internal/strategy"
	"altair/internal/strategy/builtins"
)

// waveCloses produces a flat-dip-rally-fade close series long enough to
// generate SMA crossings both ways.
func waveCloses() []float64 {
	var closes []float64
	for i := 0; i < 6; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 95-float64(i))
	}
	for i := 0; i < 12; i++ {
		closes = append(closes, 92+3*float64(i))
	}
	for i := 0; i < 8; i++ {
		closes = append(closes, 125-4*float64(i))
	}
	return closes
}

func waveFeed(name string) *feed.MemoryFeed {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return feed.NewMemoryFeedFromCloses(name, start, waveCloses())
}

func smaCrossFactory(fast, slow int) strategy.Factory {
	return func() strategy.Strategy { return builtins.NewSMACross(fast, slow) }
}

func TestRunWithoutFeedsReturnsEmpty(t *testing.T) {
	c := New(DefaultConfig(), nil)
	c.AddStrategy(smaCrossFactory(3, 5))

	results, err := c.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestRunEmptyFeedReturnsEmpty(t *testing.T) {
	c := New(DefaultConfig(), nil)
	c.AddFeed(feed.NewMemoryFeed("empty"))
	c.AddStrategy(smaCrossFactory(3, 5))

	results, err := c.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func TestRunShorterThanWarmupCompletesWithoutTrades(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	f := feed.NewMemoryFeedFromCloses("acme", start, []float64{100, 101, 102})

	c := New(DefaultConfig(), nil)
	c.AddFeed(f)
	c.AddStrategy(smaCrossFactory(5, 10))

	results, err := c.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]
	if res.TotalTrades != 0 {
		t.Errorf("trades = %d, want 0", res.TotalTrades)
	}
	if res.EndCash != res.StartCash {
		t.Errorf("end cash = %v, want start cash %v exactly", res.EndCash, res.StartCash)
	}
	if res.TotalBars != 3 {
		t.Errorf("bars = %d, want 3", res.TotalBars)
	}
}

func TestSMACrossEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg, nil)
	c.AddFeed(waveFeed("acme"))
	c.AddStrategy(smaCrossFactory(3, 6))
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewSharpeRatio(bk.Value)
	})
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewDrawDown(bk.Value)
	})

	results, err := c.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]

	if res.TotalTrades == 0 {
		t.Fatal("expected at least one round-trip trade from the wave data")
	}

	// Broker identity: end value equals cash plus marked positions.
	bk := c.Broker()
	f := c.feeds[0]
	f.Lines().Seek(f.Length() - 1)
	wantValue := bk.Cash() + bk.Position("acme").Size*f.Lines().Close().Get(0)
	if math.Abs(res.EndValue-wantValue) > 1e-9 {
		t.Errorf("end value = %v, want %v", res.EndValue, wantValue)
	}

	if _, ok := res.Analysis["sharpe"]; !ok {
		t.Error("missing sharpe analysis")
	}
	if _, ok := res.Analysis["drawdown"]; !ok {
		t.Error("missing drawdown analysis")
	}
	if res.PnLPct != res.PnL/res.StartCash*100 {
		t.Errorf("pnl_pct = %v inconsistent with pnl %v", res.PnLPct, res.PnL)
	}
}

func TestRunOnceMatchesRunNext(t *testing.T) {
	run := func(runonce bool) *RunResult {
		cfg := DefaultConfig()
		cfg.RunOnce = runonce
		c := New(cfg, nil)
		c.AddFeed(waveFeed("acme"))
		c.AddStrategy(smaCrossFactory(3, 6))
		results, err := c.Run()
		if err != nil {
			t.Fatalf("Run(runonce=%v) error: %v", runonce, err)
		}
		if len(results) != 1 {
			t.Fatalf("Run(runonce=%v) results = %d", runonce, len(results))
		}
		return results[0]
	}

	once := run(true)
	next := run(false)

	if once.TotalTrades != next.TotalTrades {
		t.Errorf("trades: runonce %d, runnext %d", once.TotalTrades, next.TotalTrades)
	}
	if math.Abs(once.EndValue-next.EndValue) > 1e-9 {
		t.Errorf("end value: runonce %v, runnext %v", once.EndValue, next.EndValue)
	}
	if math.Abs(once.EndCash-next.EndCash) > 1e-9 {
		t.Errorf("end cash: runonce %v, runnext %v", once.EndCash, next.EndCash)
	}
}

func TestGridCombinations(t *testing.T) {
	g := NewGrid().
		Add("fast", params.Int(5), params.Int(10), params.Int(15)).
		Add("slow", params.Int(20), params.Int(30))

	combos := g.Combinations()
	if len(combos) != 6 {
		t.Fatalf("combinations = %d, want 6", len(combos))
	}
	if g.Total() != 6 {
		t.Errorf("Total() = %d, want 6", g.Total())
	}

	seen := make(map[string]bool)
	for _, p := range combos {
		key := p.Str("fast", "") + "/" + p.Str("slow", "")
		if seen[key] {
			t.Errorf("duplicate combination %s", key)
		}
		seen[key] = true
	}
}

func TestGridRanges(t *testing.T) {
	g := NewGrid().AddIntRange("period", 10, 20, 5)
	if g.Total() != 3 {
		t.Errorf("int range total = %d, want 3 (10, 15, 20)", g.Total())
	}

	g2 := NewGrid().AddFloatRange("dev", 1.0, 2.0, 0.5)
	if g2.Total() != 3 {
		t.Errorf("float range total = %d, want 3 (1.0, 1.5, 2.0)", g2.Total())
	}
}

func TestOptimizationSweep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCPUs = 2
	c := New(cfg, nil)
	c.AddFeed(waveFeed("acme"))
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewSharpeRatio(bk.Value)
	})
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewDrawDown(bk.Value)
	})

	grid := NewGrid().
		Add("fast", params.Int(2), params.Int(3), params.Int(4)).
		Add("slow", params.Int(6), params.Int(8))
	c.OptStrategy(func() strategy.Strategy { return builtins.NewSMACross(3, 6) }, grid)

	var callbackCount int
	c.OnOptResult(func(OptResult) { callbackCount++ })

	results, err := c.RunOptimize()
	if err != nil {
		t.Fatalf("RunOptimize returned error: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("results = %d, want grid cardinality 6", len(results))
	}
	if callbackCount != 6 {
		t.Errorf("callbacks = %d, want 6", callbackCount)
	}

	// Sorted descending by PnL%.
	for i := 1; i < len(results); i++ {
		if results[i].PnLPct > results[i-1].PnLPct {
			t.Errorf("results not sorted: [%d] %v > [%d] %v",
				i, results[i].PnLPct, i-1, results[i-1].PnLPct)
		}
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("run %v failed: %v", r.Params.Keys(), r.Err)
		}
		if math.IsNaN(r.SharpeRatio) {
			t.Error("sharpe not extracted from analyzer output")
		}
	}
}

func TestSortOptResultsByDrawdown(t *testing.T) {
	results := []OptResult{
		{MaxDrawdown: 20},
		{MaxDrawdown: 5},
		{MaxDrawdown: math.NaN()},
		{MaxDrawdown: 10},
	}
	SortOptResults(results, ByMaxDrawdown, true)

	if results[0].MaxDrawdown != 5 || results[1].MaxDrawdown != 10 || results[2].MaxDrawdown != 20 {
		t.Errorf("drawdown order = %v, %v, %v; want 5, 10, 20",
			results[0].MaxDrawdown, results[1].MaxDrawdown, results[2].MaxDrawdown)
	}
	if !math.IsNaN(results[3].MaxDrawdown) {
		t.Error("NaN drawdown should sink to the bottom")
	}
}

func TestSummarizeAndSensitivity(t *testing.T) {
	p1 := params.New()
	p1.Set("fast", params.Int(5))
	p2 := params.New()
	p2.Set("fast", params.Int(5))
	p3 := params.New()
	p3.Set("fast", params.Int(10))

	results := []OptResult{
		{Params: p1, PnLPct: 10, WinRate: 50, TotalTrades: 4},
		{Params: p2, PnLPct: 20, WinRate: 60, TotalTrades: 6},
		{Params: p3, PnLPct: -5, WinRate: 40, TotalTrades: 2},
	}

	s := Summarize(results)
	if s.TotalRuns != 3 || s.ProfitableRuns != 2 {
		t.Errorf("summary runs = %d/%d, want 3/2", s.TotalRuns, s.ProfitableRuns)
	}
	if math.Abs(s.AvgPnLPct-25.0/3.0) > 1e-9 {
		t.Errorf("avg pnl%% = %v", s.AvgPnLPct)
	}
	if s.MaxPnLPct != 20 || s.MinPnLPct != -5 {
		t.Errorf("max/min = %v/%v", s.MaxPnLPct, s.MinPnLPct)
	}

	sens := ParamSensitivity(results, "fast")
	if math.Abs(sens["5"]-15.0) > 1e-9 {
		t.Errorf("sensitivity[5] = %v, want 15", sens["5"])
	}
	if math.Abs(sens["10"]-(-5.0)) > 1e-9 {
		t.Errorf("sensitivity[10] = %v, want -5", sens["10"])
	}
}

func TestCheatOnCloseFillsSameBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = CheatOnClose
	c := New(cfg, nil)
	c.AddFeed(waveFeed("acme"))
	c.AddStrategy(smaCrossFactory(3, 6))

	results, err := c.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 || results[0].TotalTrades == 0 {
		t.Fatal("cheat-on-close run produced no trades")
	}

	// Every fill must match the close of its bar, not the next open.
	f := c.feeds[0]
	for _, o := range c.Broker().Orders() {
		if o.Status != "completed" {
			continue
		}
		matched := false
		for i := 0; i < f.Length(); i++ {
			f.Lines().Seek(i)
			if math.Abs(o.Executed.Price-f.Lines().Close().Get(0)) < 1e-9 {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("fill price %v not a bar close", o.Executed.Price)
		}
	}
}
