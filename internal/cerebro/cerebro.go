// Package cerebro hosts the engine's control loop: it owns the broker,
// data feeds, strategies, analyzers, and observers, drives the per-bar
// phase sequence with warm-up handling and bar-time policies, and runs
// parameter-optimization sweeps over a worker pool.
package cerebro

import (
	"log/slog"
	"math"
	"sync/atomic"

	"altair/internal/analyzer"
	"altair/internal/broker"
	"altair/internal/domain"
	"altair/internal/feed"
	"altair/internal/observer"
	"altair/internal/sizer"
	"altair/internal/strategy"
)

// BarPolicy selects when within a bar orders become fillable.
type BarPolicy int

// Bar policies.
const (
	// Normal fills orders against the bar after submission.
	Normal BarPolicy = iota
	// CheatOnOpen lets the strategy trade on the current bar's open.
	CheatOnOpen
	// CheatOnClose fills orders at the current bar's close.
	CheatOnClose
)

// Config configures a Cerebro.
type Config struct {
	Preload  bool // load all feeds before running
	RunOnce  bool // bulk-compute indicators before the bar loop
	StdStats bool // attach the standard cash/value observers
	Policy   BarPolicy

	Broker broker.Params

	MaxCPUs  int  // optimization workers; 0 means GOMAXPROCS
	OptDatas bool // share preloaded feeds across optimization workers
}

// DefaultConfig mirrors the conventional backtest setup.
func DefaultConfig() Config {
	return Config{
		Preload:  true,
		RunOnce:  true,
		StdStats: true,
		Broker:   broker.DefaultParams(),
		OptDatas: true,
	}
}

// RunResult summarizes one strategy's backtest.
type RunResult struct {
	StartCash float64
	EndCash   float64
	EndValue  float64
	PnL       float64
	PnLPct    float64

	TotalBars   int
	TotalTrades int
	Trades      []*domain.Trade

	// Analysis maps analyzer name to its final statistics.
	Analysis map[string]map[string]float64

	Strategy strategy.Strategy
}

// AnalyzerFactory builds an analyzer bound to a broker. Factories let every
// run (including optimization clones) get fresh analyzer state.
type AnalyzerFactory func(bk *broker.BacktestBroker, datas []feed.Feed) analyzer.Analyzer

// ObserverFactory builds an observer bound to a broker.
type ObserverFactory func(bk *broker.BacktestBroker) observer.Observer

// Cerebro owns all engine components for one or more runs. It must not be
// copied; optimization clones are built fresh and share only preloaded
// feed data.
type Cerebro struct {
	cfg Config
	log *slog.Logger

	bk    *broker.BacktestBroker
	feeds []feed.Feed

	factories    []strategy.Factory
	sizerFactory func() sizer.Sizer

	analyzerFactories []AnalyzerFactory
	observerFactories []ObserverFactory

	optFactory   strategy.Factory
	optGrid      *Grid
	optCallbacks []func(OptResult)

	stopRequested atomic.Bool
}

// New creates a Cerebro with the given configuration.
func New(cfg Config, log *slog.Logger) *Cerebro {
	if log == nil {
		log = slog.Default()
	}
	return &Cerebro{
		cfg: cfg,
		log: log,
		bk:  broker.NewBacktestBroker(cfg.Broker),
	}
}

// Broker returns the owned broker.
func (c *Cerebro) Broker() *broker.BacktestBroker { return c.bk }

// AddFeed registers a data feed with the engine and the broker.
func (c *Cerebro) AddFeed(f feed.Feed) {
	c.feeds = append(c.feeds, f)
	c.bk.AddFeed(f)
}

// AddStrategy records a strategy factory; each Run instantiates it fresh.
func (c *Cerebro) AddStrategy(f strategy.Factory) {
	c.factories = append(c.factories, f)
}

// SetSizer records the sizer factory applied to every strategy.
func (c *Cerebro) SetSizer(f func() sizer.Sizer) { c.sizerFactory = f }

// AddAnalyzer registers an analyzer factory.
func (c *Cerebro) AddAnalyzer(f AnalyzerFactory) {
	c.analyzerFactories = append(c.analyzerFactories, f)
}

// AddObserver registers an observer factory.
func (c *Cerebro) AddObserver(f ObserverFactory) {
	c.observerFactories = append(c.observerFactories, f)
}

// Stop requests loop termination; it is checked once per bar and is the
// only Cerebro state a caller may touch from another goroutine.
func (c *Cerebro) Stop() { c.stopRequested.Store(true) }

// Run executes one backtest per registered strategy factory and returns
// their results. An empty feed set or zero-length data yields an empty
// result set.
func (c *Cerebro) Run() ([]*RunResult, error) {
	if len(c.feeds) == 0 || len(c.factories) == 0 {
		return nil, nil
	}
	c.stopRequested.Store(false)

	if c.cfg.Preload {
		for _, f := range c.feeds {
			if err := f.Load(); err != nil {
				return nil, err
			}
		}
	}

	barCount := math.MaxInt
	for _, f := range c.feeds {
		if n := f.Length(); n < barCount {
			barCount = n
		}
	}
	if barCount == 0 || barCount == math.MaxInt {
		return nil, nil
	}

	var results []*RunResult
	for _, factory := range c.factories {
		res, err := c.runStrategy(factory, barCount)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if c.stopRequested.Load() {
			break
		}
	}
	return results, nil
}

// runStrategy executes one full backtest for a fresh strategy instance.
func (c *Cerebro) runStrategy(factory strategy.Factory, barCount int) (*RunResult, error) {
	c.bk.Reset()

	s := factory()
	base := strategy.SetupBase(s, c.bk)
	for _, f := range c.feeds {
		base.AddData(f)
	}
	if c.sizerFactory != nil {
		base.SetSizer(c.sizerFactory())
	}
	if err := s.Init(); err != nil {
		return nil, err
	}

	analyzers := make([]analyzer.Analyzer, 0, len(c.analyzerFactories))
	for _, f := range c.analyzerFactories {
		analyzers = append(analyzers, f(c.bk, c.feeds))
	}

	observers := make([]observer.Observer, 0, len(c.observerFactories))
	if c.cfg.StdStats {
		observers = append(observers, observer.NewCash(c.bk), observer.NewValue(c.bk))
	}
	for _, f := range c.observerFactories {
		observers = append(observers, f(c.bk))
	}

	// Reset all cursors to the first bar.
	for _, f := range c.feeds {
		f.Lines().Home()
	}

	if c.cfg.RunOnce {
		for _, ind := range base.Indicators() {
			ind.Once(0, barCount)
		}
	}

	for _, a := range analyzers {
		a.Start()
	}
	for _, o := range observers {
		o.Start()
	}
	s.Start()

	result := &RunResult{
		StartCash: c.bk.StartCash(),
		Strategy:  s,
		Analysis:  make(map[string]map[string]float64),
	}

	minPeriod := base.MinPeriod()
	nextStartDone := false
	nextStartOpenDone := false

	for bar := 0; bar < barCount; bar++ {
		if c.stopRequested.Load() {
			break
		}

		for _, f := range c.feeds {
			f.Lines().Seek(bar)
		}
		if c.cfg.RunOnce {
			for _, ind := range base.Indicators() {
				ind.Lines().Seek(bar)
			}
		} else {
			for _, ind := range base.Indicators() {
				ind.Next()
			}
		}

		dt := c.feeds[0].Lines().Datetime().Get(0)
		when := feed.NumToTime(dt)
		base.SetBar(bar, barCount)
		c.bk.SetBar(bar, dt)

		ready := bar >= minPeriod-1

		// Cheat timers fire before any bar processing.
		for _, t := range base.Timers().Check(when, true) {
			s.NotifyTimer(t, when)
		}

		switch c.cfg.Policy {
		case CheatOnOpen:
			switch {
			case !ready:
				s.PreNextOpen()
			case !nextStartOpenDone:
				s.NextStartOpen()
				nextStartOpenDone = true
			default:
				s.NextOpen()
			}
			c.bk.NextOpen()
			c.deliverNotifications(s, analyzers, observers)
			c.dispatchNext(s, ready, &nextStartDone)

		case CheatOnClose:
			c.deliverNotifications(s, analyzers, observers)
			c.dispatchNext(s, ready, &nextStartDone)
			c.bk.NextClose()
			c.deliverNotifications(s, analyzers, observers)

		default:
			c.bk.Next()
			c.deliverNotifications(s, analyzers, observers)
			c.dispatchNext(s, ready, &nextStartDone)
		}

		c.bk.ChargeInterest()
		c.bk.MarkFund()

		s.NotifyCashValue(c.bk.Cash(), c.bk.Value())
		if c.bk.FundMode() {
			s.NotifyFund(c.bk.Cash(), c.bk.Value(), c.bk.FundValue(), c.bk.FundShares())
		}

		for _, t := range base.Timers().Check(when, false) {
			s.NotifyTimer(t, when)
		}

		for _, a := range analyzers {
			a.Next()
		}
		for _, o := range observers {
			o.Next()
		}
	}

	s.Stop()
	// Deliver whatever the final bar produced before tearing down.
	c.deliverNotifications(s, analyzers, observers)

	for _, a := range analyzers {
		a.Stop()
		result.Analysis[a.Name()] = a.Analysis()
	}

	result.EndCash = c.bk.Cash()
	result.EndValue = c.bk.Value()
	result.PnL = result.EndValue - result.StartCash
	if result.StartCash > 0 {
		result.PnLPct = result.PnL / result.StartCash * 100.0
	}
	result.TotalBars = barCount
	result.Trades = c.bk.Trades()
	result.TotalTrades = len(result.Trades)
	return result, nil
}

// dispatchNext routes the bar to PreNext, NextStart, or Next by warm-up
// state.
func (c *Cerebro) dispatchNext(s strategy.Strategy, ready bool, nextStartDone *bool) {
	switch {
	case !ready:
		s.PreNext()
	case !*nextStartDone:
		s.NextStart()
		*nextStartDone = true
	default:
		s.Next()
	}
}

// deliverNotifications drains broker order and trade queues into the
// strategy, analyzers, and observers.
func (c *Cerebro) deliverNotifications(s strategy.Strategy, analyzers []analyzer.Analyzer, observers []observer.Observer) {
	for _, o := range c.bk.PopOrderNotifications() {
		s.NotifyOrder(o)
		for _, ob := range observers {
			ob.NotifyOrder(o)
		}
	}
	for _, t := range c.bk.PopTradeNotifications() {
		s.NotifyTrade(t)
		for _, a := range analyzers {
			a.NotifyTrade(t)
		}
		for _, ob := range observers {
			ob.NotifyTrade(t)
		}
	}
}
