package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 9090
  read_timeout: 5s
  write_timeout: 10s
  shutdown_timeout: 5s
logging:
  level: debug
  format: json
registry:
  artifact_dir: /tmp/artifacts
training:
  tolerance: 0.075
  coverage: 0.9
marketdata:
  tickers: ["AAPL"]
scheduler:
  enabled: true
  retrain_at: "18:30"
  architectures: ["lstm"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Training.Tolerance != 0.075 {
		t.Errorf("tolerance = %v", cfg.Training.Tolerance)
	}
	// Unset training knobs get safe defaults.
	if cfg.Training.MinCalibration != 20 {
		t.Errorf("min_calibration default = %d, want 20", cfg.Training.MinCalibration)
	}
	if cfg.Training.TrainFraction != 0.8 {
		t.Errorf("train_fraction default = %v, want 0.8", cfg.Training.TrainFraction)
	}
	if cfg.Training.Workers != 2 {
		t.Errorf("workers default = %d, want 2", cfg.Training.Workers)
	}
	if cfg.Scheduler.RetrainAt != "18:30" {
		t.Errorf("retrain_at = %s", cfg.Scheduler.RetrainAt)
	}
}

func TestLoadRejectsMissingEnvironment(t *testing.T) {
	if _, err := Load(writeConfig(t, "server:\n  port: 1\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsBadTolerance(t *testing.T) {
	bad := `
environment: test
registry:
  artifact_dir: /tmp/a
training:
  tolerance: 1.5
  coverage: 0.9
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected validation error for tolerance > 1")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	bad := `
environment: test
registry:
  artifact_dir: /tmp/a
training:
  tolerance: 0.05
  coverage: 0.9
kafka:
  enabled: true
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected validation error for enabled kafka without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MARKETDATA_API_KEY", "secret")
	t.Setenv("TICKERS", "NVDA,AMD")
	t.Setenv("ENGINE_URL", "http://engine:9000")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.MarketData.APIKey != "secret" {
		t.Errorf("api key = %q", cfg.MarketData.APIKey)
	}
	if len(cfg.MarketData.Tickers) != 2 || cfg.MarketData.Tickers[0] != "NVDA" {
		t.Errorf("tickers = %v", cfg.MarketData.Tickers)
	}
	if cfg.Training.EngineURL != "http://engine:9000" {
		t.Errorf("engine url = %q", cfg.Training.EngineURL)
	}
}
