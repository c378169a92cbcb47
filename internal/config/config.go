// Package config loads the YAML run configuration with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"altair/internal/params"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a backtest run.
type Config struct {
	Storage    Storage          `yaml:"storage"`
	Logging    Logging          `yaml:"logging"`
	Broker     BrokerConfig     `yaml:"broker"`
	Commission CommissionConfig `yaml:"commission"`
	Engine     EngineConfig     `yaml:"engine"`
	Data       DataConfig       `yaml:"data"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Optimize   OptimizeConfig   `yaml:"optimize"`
}

// Storage holds paths for data loading and result persistence.
type Storage struct {
	DataDir     string `yaml:"data_dir"`
	SQLitePath  string `yaml:"sqlite_path"`
	ResultsPath string `yaml:"results_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BrokerConfig configures the simulated broker.
type BrokerConfig struct {
	Cash          float64 `yaml:"cash"`
	CheckSubmit   bool    `yaml:"check_submit"`
	CheatOnOpen   bool    `yaml:"cheat_on_open"`
	CheatOnClose  bool    `yaml:"cheat_on_close"`
	FundMode      bool    `yaml:"fund_mode"`
	FundStartVal  float64 `yaml:"fund_start_val"`
	SlippagePerc  float64 `yaml:"slippage_perc"`
	SlippageFixed float64 `yaml:"slippage_fixed"`
	SlipOut       bool    `yaml:"slip_out"`
}

// CommissionConfig selects and parameterizes a commission scheme.
type CommissionConfig struct {
	Scheme   string  `yaml:"scheme"` // stock, futures, forex, options, flat, ib
	Rate     float64 `yaml:"rate"`
	PercAbs  bool    `yaml:"percabs"`
	Margin   float64 `yaml:"margin"`
	Mult     float64 `yaml:"mult"`
	Leverage float64 `yaml:"leverage"`
	Interest float64 `yaml:"interest"`
}

// EngineConfig controls the run loop.
type EngineConfig struct {
	Preload  bool `yaml:"preload"`
	RunOnce  bool `yaml:"runonce"`
	StdStats bool `yaml:"stdstats"`
	MaxCPUs  int  `yaml:"max_cpus"`
}

// DataConfig selects the bar source.
type DataConfig struct {
	Source  string   `yaml:"source"` // parquet or sqlite
	Symbols []string `yaml:"symbols"`
}

// StrategyConfig names the strategy and its parameters.
type StrategyConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// OptimizeConfig declares the parameter grid for sweeps.
type OptimizeConfig struct {
	Grid map[string][]float64 `yaml:"grid"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the conventional configuration.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info", Format: "json"},
		Broker:  BrokerConfig{Cash: 100000, CheckSubmit: true, FundStartVal: 100},
		Engine:  EngineConfig{Preload: true, RunOnce: true, StdStats: true},
	}
}

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALTAIR_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("ALTAIR_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("ALTAIR_RESULTS_PATH"); v != "" {
		cfg.Storage.ResultsPath = v
	}
	if v := os.Getenv("ALTAIR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ALTAIR_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Broker.Cash = cash
		}
	}
}

// StrategyParams converts the raw YAML parameter map into a typed store.
// Unsupported value types fail loudly: a malformed parameter is a
// configuration error, not something to run a backtest over.
func (c *Config) StrategyParams() (*params.Params, error) {
	p := params.New()
	for name, raw := range c.Strategy.Params {
		switch v := raw.(type) {
		case bool:
			p.Set(name, params.Bool(v))
		case int:
			p.Set(name, params.Int(v))
		case int64:
			p.Set(name, params.Int64(v))
		case float64:
			p.Set(name, params.Float(v))
		case string:
			p.Set(name, params.String(v))
		default:
			return nil, fmt.Errorf("config: unsupported type %T for strategy parameter %q", raw, name)
		}
	}
	return p, nil
}
