package cerebro

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"altair/internal/feed"
	"altair/internal/params"
	"altair/internal/strategy"
)

// failedRunPnL deprioritizes crashed optimization runs when sorting.
const failedRunPnL = -1e10

// Grid declares the parameter space of an optimization: one value list per
// parameter name. The sweep runs the Cartesian product.
type Grid struct {
	names  []string
	values [][]params.Value
}

// NewGrid creates an empty grid.
func NewGrid() *Grid { return &Grid{} }

// Add declares a parameter with an explicit value list.
func (g *Grid) Add(name string, values ...params.Value) *Grid {
	g.names = append(g.names, name)
	g.values = append(g.values, values)
	return g
}

// AddIntRange declares an inclusive integer range with the given step.
func (g *Grid) AddIntRange(name string, start, end, step int) *Grid {
	if step <= 0 {
		step = 1
	}
	var vals []params.Value
	for v := start; v <= end; v += step {
		vals = append(vals, params.Int(v))
	}
	return g.Add(name, vals...)
}

// AddFloatRange declares an inclusive float range with the given step.
func (g *Grid) AddFloatRange(name string, start, end, step float64) *Grid {
	if step <= 0 {
		step = 1
	}
	var vals []params.Value
	for v := start; v <= end+step/2; v += step {
		vals = append(vals, params.Float(v))
	}
	return g.Add(name, vals...)
}

// Combinations materializes the Cartesian product as parameter sets.
func (g *Grid) Combinations() []*params.Params {
	if len(g.names) == 0 {
		return nil
	}
	for _, vals := range g.values {
		if len(vals) == 0 {
			return nil
		}
	}

	total := 1
	for _, vals := range g.values {
		total *= len(vals)
	}

	combos := make([]*params.Params, 0, total)
	idx := make([]int, len(g.names))
	for {
		p := params.New()
		for i, name := range g.names {
			p.Set(name, g.values[i][idx[i]])
		}
		combos = append(combos, p)

		// Odometer increment.
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g.values[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return combos
		}
	}
}

// Total returns the number of combinations.
func (g *Grid) Total() int {
	if len(g.names) == 0 {
		return 0
	}
	total := 1
	for _, vals := range g.values {
		total *= len(vals)
	}
	return total
}

// OptResult is the outcome of one parameter assignment.
type OptResult struct {
	Params        *params.Params
	FinalValue    float64
	PnL           float64
	PnLPct        float64
	SharpeRatio   float64 // NaN when no sharpe analyzer ran
	MaxDrawdown   float64 // NaN when no drawdown analyzer ran
	TotalTrades   int
	WinningTrades int
	WinRate       float64
	Err           error // non-nil when the run failed
}

// OptSortBy selects the optimization result ordering.
type OptSortBy int

// Sort criteria.
const (
	ByPnLPct OptSortBy = iota
	ByPnLAbs
	BySharpe
	ByMaxDrawdown // ascending: smaller drawdown ranks higher
	ByWinRate
	ByTotalTrades
)

// OptStrategy records the strategy factory and grid for optimization. The
// factory is invoked once per assignment; the assignment is applied to the
// strategy's parameters via override before Init runs.
func (c *Cerebro) OptStrategy(factory strategy.Factory, grid *Grid) {
	c.optFactory = factory
	c.optGrid = grid
}

// OnOptResult registers a callback invoked (under the results mutex) as
// each run completes.
func (c *Cerebro) OnOptResult(cb func(OptResult)) {
	c.optCallbacks = append(c.optCallbacks, cb)
}

// RunOptimize sweeps the recorded grid with a worker pool and returns the
// results sorted by PnL% descending. Each worker owns a fresh Cerebro
// clone; only preloaded feed data is shared (read-only) between workers.
func (c *Cerebro) RunOptimize() ([]OptResult, error) {
	if c.optFactory == nil || c.optGrid == nil {
		return nil, fmt.Errorf("cerebro: no optimization strategy recorded")
	}
	combos := c.optGrid.Combinations()
	if len(combos) == 0 {
		return nil, nil
	}

	if c.cfg.Preload {
		for _, f := range c.feeds {
			if err := f.Load(); err != nil {
				return nil, err
			}
		}
	}

	workers := c.cfg.MaxCPUs
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		results = make([]OptResult, 0, len(combos))
	)

	var g errgroup.Group
	g.SetLimit(workers)

	for _, combo := range combos {
		combo := combo
		g.Go(func() error {
			res := c.runOne(combo)
			mu.Lock()
			results = append(results, res)
			for _, cb := range c.optCallbacks {
				cb(res)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortOptResults(results, ByPnLPct, true)
	return results, nil
}

// runOne executes a single assignment in a fresh Cerebro clone. A panic in
// the run is recorded as a failed result with sentinel P&L.
func (c *Cerebro) runOne(assignment *params.Params) (res OptResult) {
	res = OptResult{
		Params:      assignment,
		SharpeRatio: math.NaN(),
		MaxDrawdown: math.NaN(),
	}
	defer func() {
		if r := recover(); r != nil {
			res.PnL = failedRunPnL
			res.PnLPct = failedRunPnL
			res.Err = fmt.Errorf("optimization run panicked: %v", r)
			c.log.Error("optimization run failed", "params", assignment.Keys(), "panic", r)
		}
	}()

	clone := New(c.cfg, c.log)
	for _, f := range c.feeds {
		clone.AddFeed(c.shareFeed(f))
	}
	if c.sizerFactory != nil {
		clone.SetSizer(c.sizerFactory)
	}
	for _, af := range c.analyzerFactories {
		clone.AddAnalyzer(af)
	}

	factory := c.optFactory
	clone.AddStrategy(func() strategy.Strategy {
		s := factory()
		s.Params().Override(assignment)
		return s
	})

	runs, err := clone.Run()
	if err != nil {
		res.PnL = failedRunPnL
		res.PnLPct = failedRunPnL
		res.Err = err
		return res
	}
	if len(runs) == 0 {
		return res
	}
	run := runs[0]

	res.FinalValue = run.EndValue
	res.PnL = run.PnL
	res.PnLPct = run.PnLPct
	res.TotalTrades = run.TotalTrades

	wins := 0
	for _, t := range run.Trades {
		if t.PnLComm > 0 {
			wins++
		}
	}
	res.WinningTrades = wins
	if run.TotalTrades > 0 {
		res.WinRate = float64(wins) / float64(run.TotalTrades) * 100.0
	}

	if sharpe, ok := run.Analysis["sharpe"]; ok {
		res.SharpeRatio = sharpe["sharpe_ratio"]
	}
	if dd, ok := run.Analysis["drawdown"]; ok {
		res.MaxDrawdown = dd["max_drawdown"]
	}
	return res
}

// shareFeed returns a view of the feed when data sharing is enabled and
// the feed supports it; otherwise the feed itself (single-goroutine use
// only).
func (c *Cerebro) shareFeed(f feed.Feed) feed.Feed {
	if !c.cfg.OptDatas {
		return f
	}
	type viewer interface{ View() *feed.Series }
	if v, ok := f.(viewer); ok {
		return v.View()
	}
	return f
}

// SortOptResults orders results by the given criterion. For drawdown the
// descending flag is ignored: smaller drawdowns always rank higher. Failed
// runs sink to the bottom.
func SortOptResults(results []OptResult, by OptSortBy, descending bool) {
	key := func(r OptResult) float64 {
		switch by {
		case ByPnLAbs:
			return r.PnL
		case BySharpe:
			if math.IsNaN(r.SharpeRatio) {
				return failedRunPnL
			}
			return r.SharpeRatio
		case ByMaxDrawdown:
			if math.IsNaN(r.MaxDrawdown) {
				return failedRunPnL
			}
			return -r.MaxDrawdown
		case ByWinRate:
			return r.WinRate
		case ByTotalTrades:
			return float64(r.TotalTrades)
		default:
			return r.PnLPct
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		ki, kj := key(results[i]), key(results[j])
		if by == ByMaxDrawdown {
			return ki > kj // negated drawdown: larger key = smaller drawdown
		}
		if descending {
			return ki > kj
		}
		return ki < kj
	})
}

// OptSummary aggregates a result set.
type OptSummary struct {
	TotalRuns      int
	ProfitableRuns int
	AvgPnLPct      float64
	MaxPnLPct      float64
	MinPnLPct      float64
	StdPnLPct      float64
	AvgWinRate     float64
	AvgTrades      float64
}

// Summarize computes summary statistics over a result set.
func Summarize(results []OptResult) OptSummary {
	s := OptSummary{TotalRuns: len(results), MaxPnLPct: math.Inf(-1), MinPnLPct: math.Inf(1)}
	if len(results) == 0 {
		return OptSummary{}
	}

	var sumPnl, sumWin, sumTrades float64
	for _, r := range results {
		sumPnl += r.PnLPct
		sumWin += r.WinRate
		sumTrades += float64(r.TotalTrades)
		if r.PnLPct > 0 {
			s.ProfitableRuns++
		}
		if r.PnLPct > s.MaxPnLPct {
			s.MaxPnLPct = r.PnLPct
		}
		if r.PnLPct < s.MinPnLPct {
			s.MinPnLPct = r.PnLPct
		}
	}
	n := float64(len(results))
	s.AvgPnLPct = sumPnl / n
	s.AvgWinRate = sumWin / n
	s.AvgTrades = sumTrades / n

	var sq float64
	for _, r := range results {
		d := r.PnLPct - s.AvgPnLPct
		sq += d * d
	}
	s.StdPnLPct = math.Sqrt(sq / n)
	return s
}

// ParamSensitivity maps each observed value of one parameter to the mean
// PnL% across the runs holding it.
func ParamSensitivity(results []OptResult, name string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range results {
		v, err := r.Params.Get(name)
		if err != nil {
			continue
		}
		key := v.String()
		sums[key] += r.PnLPct
		counts[key]++
	}
	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}
