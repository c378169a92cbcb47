// Command altair-cli runs backtests and parameter optimizations from a
// YAML configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"altair/internal/analyzer"
	"altair/internal/broker"
	"altair/internal/cerebro"
	"altair/internal/config"
	"altair/internal/dashboard"
	"altair/internal/feed"
	"altair/internal/params"
	"altair/internal/store"
	"altair/internal/strategy"
	"altair/internal/strategy/builtins"
	"altair/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: altair-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  run        Run a backtest from a config file\n")
		fmt.Fprintf(os.Stderr, "  opt        Run a parameter optimization sweep\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("altair-cli %s\n", version)

	case "run":
		if err := runCmd(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "run: %v\n", err)
			os.Exit(1)
		}

	case "opt":
		if err := optCmd(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "opt: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

// registry holds the strategies shipped with the CLI.
func registry() *strategy.Registry {
	r := strategy.NewRegistry()
	r.Register("sma-cross", func() strategy.Strategy { return builtins.NewSMACross(10, 30) })
	return r
}

// setup builds a Cerebro from the configuration: engine flags, broker,
// commission scheme, and data feeds.
func setup(cfg *config.Config, log *slog.Logger) (*cerebro.Cerebro, error) {
	ccfg := cerebro.DefaultConfig()
	ccfg.Preload = cfg.Engine.Preload
	ccfg.RunOnce = cfg.Engine.RunOnce
	ccfg.StdStats = cfg.Engine.StdStats
	ccfg.MaxCPUs = cfg.Engine.MaxCPUs

	switch {
	case cfg.Broker.CheatOnOpen:
		ccfg.Policy = cerebro.CheatOnOpen
	case cfg.Broker.CheatOnClose:
		ccfg.Policy = cerebro.CheatOnClose
	}

	ccfg.Broker = broker.Params{
		Cash:         cfg.Broker.Cash,
		CheckSubmit:  cfg.Broker.CheckSubmit,
		CheatOnOpen:  cfg.Broker.CheatOnOpen,
		CheatOnClose: cfg.Broker.CheatOnClose,
		FundMode:     cfg.Broker.FundMode,
		FundStartVal: cfg.Broker.FundStartVal,
		Slippage: broker.SlippageConfig{
			Perc:      cfg.Broker.SlippagePerc,
			Fixed:     cfg.Broker.SlippageFixed,
			SlipOpen:  true,
			SlipMatch: true,
			SlipLimit: true,
			SlipOut:   cfg.Broker.SlipOut,
		},
	}

	c := cerebro.New(ccfg, log)

	if ci := commScheme(cfg.Commission); ci != nil {
		c.Broker().SetCommission(ci)
	}

	for _, symbol := range cfg.Data.Symbols {
		f, err := openFeed(cfg, symbol)
		if err != nil {
			return nil, err
		}
		c.AddFeed(f)
	}

	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewSharpeRatio(bk.Value)
	})
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewDrawDown(bk.Value)
	})
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewTradeAnalyzer()
	})
	c.AddAnalyzer(func(bk *broker.BacktestBroker, _ []feed.Feed) analyzer.Analyzer {
		return analyzer.NewSQN()
	})
	c.AddAnalyzer(func(bk *broker.BacktestBroker, datas []feed.Feed) analyzer.Analyzer {
		return analyzer.NewAnnualReturn(bk.Value, datas[0])
	})

	return c, nil
}

func commScheme(cc config.CommissionConfig) broker.CommInfo {
	switch cc.Scheme {
	case "stock":
		return broker.NewStockComm(cc.Rate, cc.PercAbs)
	case "futures":
		return broker.NewFuturesComm(cc.Rate, cc.Margin, cc.Mult)
	case "forex":
		return broker.NewForexComm(cc.Leverage, cc.Interest)
	case "options":
		return broker.NewOptionsComm(cc.Rate)
	case "flat":
		return broker.NewFlatComm(cc.Rate)
	case "ib":
		return broker.NewIBComm()
	}
	return nil
}

func openFeed(cfg *config.Config, symbol string) (feed.Feed, error) {
	switch cfg.Data.Source {
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite source needs storage.sqlite_path")
		}
		return feed.NewSQLiteFeed(symbol, cfg.Storage.SQLitePath), nil
	case "parquet":
		if cfg.Storage.DataDir == "" {
			return nil, fmt.Errorf("parquet source needs storage.data_dir")
		}
		path := filepath.Join(cfg.Storage.DataDir, symbol+".parquet")
		return feed.NewParquetFeed(symbol, path), nil
	}
	return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}

// strategyFactory resolves the configured strategy and bakes in its
// parameter overrides.
func strategyFactory(cfg *config.Config) (strategy.Factory, error) {
	factory, ok := registry().Get(cfg.Strategy.Name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", cfg.Strategy.Name, registry().List())
	}
	overrides, err := cfg.StrategyParams()
	if err != nil {
		return nil, err
	}
	return func() strategy.Strategy {
		s := factory()
		s.Params().Override(overrides)
		return s
	}, nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "altair.yaml", "path to the YAML configuration")
	fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log := util.NewLogger(cfg.Logging.Level)

	c, err := setup(cfg, log)
	if err != nil {
		return err
	}
	factory, err := strategyFactory(cfg)
	if err != nil {
		return err
	}
	c.AddStrategy(factory)

	results, err := c.Run()
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no results: empty data")
		return nil
	}

	for _, res := range results {
		fmt.Println(dashboard.RenderRun(cfg.Strategy.Name, res))
	}

	if cfg.Storage.ResultsPath != "" {
		st, err := store.NewSQLiteStore(cfg.Storage.ResultsPath)
		if err != nil {
			return err
		}
		defer st.Close()
		for _, res := range results {
			id, err := st.SaveRun(context.Background(), cfg.Strategy.Name, res)
			if err != nil {
				return err
			}
			log.Info("run persisted", "id", id, "pnl_pct", res.PnLPct)
		}
	}
	return nil
}

func optCmd(args []string) error {
	fs := flag.NewFlagSet("opt", flag.ExitOnError)
	cfgPath := fs.String("config", "altair.yaml", "path to the YAML configuration")
	top := fs.Int("top", 10, "number of results to print")
	tui := fs.Bool("tui", false, "show live optimization progress")
	fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log := util.NewLogger(cfg.Logging.Level)

	c, err := setup(cfg, log)
	if err != nil {
		return err
	}
	factory, err := strategyFactory(cfg)
	if err != nil {
		return err
	}

	grid := cerebro.NewGrid()
	for name, values := range cfg.Optimize.Grid {
		vals := make([]params.Value, len(values))
		for i, v := range values {
			if v == math.Trunc(v) {
				vals[i] = params.Int(int(v))
			} else {
				vals[i] = params.Float(v)
			}
		}
		grid.Add(name, vals...)
	}
	if grid.Total() == 0 {
		return fmt.Errorf("optimize.grid is empty")
	}
	c.OptStrategy(factory, grid)

	if *tui {
		ch := make(chan cerebro.OptResult, grid.Total())
		c.OnOptResult(func(r cerebro.OptResult) { ch <- r })

		done := make(chan struct{})
		var results []cerebro.OptResult
		var runErr error
		go func() {
			results, runErr = c.RunOptimize()
			close(ch)
			close(done)
		}()

		if _, err := tea.NewProgram(dashboard.NewOptModel(grid.Total(), ch)).Run(); err != nil {
			return err
		}
		<-done
		if runErr != nil {
			return runErr
		}
		fmt.Println(dashboard.RenderOptTable(results, *top))
		return nil
	}

	results, err := c.RunOptimize()
	if err != nil {
		return err
	}
	fmt.Println(dashboard.RenderOptTable(results, *top))

	summary := cerebro.Summarize(results)
	fmt.Printf("runs %d  profitable %d  avg pnl%% %.2f  best %.2f  worst %.2f\n",
		summary.TotalRuns, summary.ProfitableRuns,
		summary.AvgPnLPct, summary.MaxPnLPct, summary.MinPnLPct)
	return nil
}
