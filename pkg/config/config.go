package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		TicksTopic   string        `yaml:"ticks_topic"` // optional Kafka tick ingress; empty disables the consumer
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	MarketData struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Tickers        []string      `yaml:"tickers"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"marketdata"`
	Registry struct {
		ArtifactDir string `yaml:"artifact_dir"`
	} `yaml:"registry"`
	Training struct {
		EngineURL      string        `yaml:"engine_url"` // external training service; empty selects the local engine
		EngineTimeout  time.Duration `yaml:"engine_timeout"`
		Tolerance      float64       `yaml:"tolerance"`       // relative-error bound for tolerance accuracy, e.g. 0.075
		Coverage       float64       `yaml:"coverage"`        // default conformal target coverage
		MinCalibration int           `yaml:"min_calibration"` // minimum residuals before intervals are produced
		TrainFraction  float64       `yaml:"train_fraction"`
		Workers        int           `yaml:"workers"`
	} `yaml:"training"`
	Scheduler struct {
		Enabled       bool     `yaml:"enabled"`
		RetrainAt     string   `yaml:"retrain_at"` // daily wall-clock time, e.g. "17:00"
		Tickers       []string `yaml:"tickers"`
		Architectures []string `yaml:"architectures"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.MarketData.Tickers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ENGINE_URL"); v != "" {
		c.Training.EngineURL = v
	}
	if v := os.Getenv("ARTIFACT_DIR"); v != "" {
		c.Registry.ArtifactDir = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Registry.ArtifactDir == "" {
		return fmt.Errorf("registry.artifact_dir is required")
	}
	if c.Training.Tolerance <= 0 || c.Training.Tolerance >= 1 {
		return fmt.Errorf("training.tolerance must be in (0, 1), got %v", c.Training.Tolerance)
	}
	if c.Training.Coverage <= 0 || c.Training.Coverage >= 1 {
		return fmt.Errorf("training.coverage must be in (0, 1), got %v", c.Training.Coverage)
	}
	if c.Training.MinCalibration <= 0 {
		c.Training.MinCalibration = 20
	}
	if c.Training.TrainFraction <= 0 || c.Training.TrainFraction >= 1 {
		c.Training.TrainFraction = 0.8
	}
	if c.Training.Workers <= 0 {
		c.Training.Workers = 2
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
