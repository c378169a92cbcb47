package config

import (
	"os"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "altair-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/altair/data"
  sqlite_path: "/tmp/altair/bars.db"
  results_path: "/tmp/altair/results.db"
logging:
  level: "debug"
  format: "json"
broker:
  cash: 250000
  check_submit: true
  cheat_on_close: true
  slippage_perc: 0.001
commission:
  scheme: "stock"
  rate: 0.001
  percabs: true
engine:
  preload: true
  runonce: false
  stdstats: true
  max_cpus: 4
data:
  source: "sqlite"
  symbols: ["ACME", "GLOBEX"]
strategy:
  name: "sma-cross"
  params:
    fast: 10
    slow: 30
optimize:
  grid:
    fast: [5, 10, 15]
    slow: [20, 30]
`)

	// Clear overrides that might interfere.
	os.Unsetenv("ALTAIR_DATA_DIR")
	os.Unsetenv("ALTAIR_CASH")
	os.Unsetenv("ALTAIR_LOG_LEVEL")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/altair/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/altair/data")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Broker.Cash != 250000 {
		t.Errorf("Broker.Cash = %v, want 250000", cfg.Broker.Cash)
	}
	if !cfg.Broker.CheatOnClose {
		t.Error("Broker.CheatOnClose = false, want true")
	}
	if cfg.Engine.RunOnce {
		t.Error("Engine.RunOnce = true, want false")
	}
	if cfg.Engine.MaxCPUs != 4 {
		t.Errorf("Engine.MaxCPUs = %d, want 4", cfg.Engine.MaxCPUs)
	}
	if len(cfg.Data.Symbols) != 2 || cfg.Data.Symbols[0] != "ACME" {
		t.Errorf("Data.Symbols = %v", cfg.Data.Symbols)
	}
	if cfg.Strategy.Name != "sma-cross" {
		t.Errorf("Strategy.Name = %q, want %q", cfg.Strategy.Name, "sma-cross")
	}
	if len(cfg.Optimize.Grid["fast"]) != 3 {
		t.Errorf("Optimize.Grid[fast] = %v, want 3 values", cfg.Optimize.Grid["fast"])
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
strategy:
  name: "sma-cross"
`)
	os.Unsetenv("ALTAIR_CASH")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Broker.Cash != 100000 {
		t.Errorf("default cash = %v, want 100000", cfg.Broker.Cash)
	}
	if !cfg.Engine.Preload || !cfg.Engine.RunOnce || !cfg.Engine.StdStats {
		t.Error("engine defaults not applied")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/original/data"
broker:
  cash: 100000
`)

	os.Setenv("ALTAIR_DATA_DIR", "/env/data")
	os.Setenv("ALTAIR_CASH", "50000")
	defer os.Unsetenv("ALTAIR_DATA_DIR")
	defer os.Unsetenv("ALTAIR_CASH")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Broker.Cash != 50000 {
		t.Errorf("Broker.Cash = %v, want env override 50000", cfg.Broker.Cash)
	}
}

func TestStrategyParamsTyped(t *testing.T) {
	path := writeConfig(t, `
strategy:
  name: "sma-cross"
  params:
    fast: 10
    dev: 2.5
    verbose: true
    mode: "long"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	p, err := cfg.StrategyParams()
	if err != nil {
		t.Fatalf("StrategyParams() returned error: %v", err)
	}
	if got := p.Int("fast", 0); got != 10 {
		t.Errorf("fast = %d, want 10", got)
	}
	if got := p.Float("dev", 0); got != 2.5 {
		t.Errorf("dev = %v, want 2.5", got)
	}
	if !p.Bool("verbose", false) {
		t.Error("verbose = false, want true")
	}
	if got := p.Str("mode", ""); got != "long" {
		t.Errorf("mode = %q, want %q", got, "long")
	}
}
