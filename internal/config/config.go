package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported data providers.
const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
	ProviderSQLite       = "sqlite"
	ProviderMock         = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Provider  string            `yaml:"provider"`
		BaseURL   string            `yaml:"base_url"`
		APIKey    string            `yaml:"api_key"`
		Timeout   time.Duration     `yaml:"timeout"`
		SymbolMap map[string]string `yaml:"symbol_map"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Probe struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		Symbol  string `yaml:"symbol"`
	} `yaml:"probe"`
	Chart struct {
		Width       int    `yaml:"width"`
		PriceHeight int    `yaml:"price_height"`
		RSIHeight   int    `yaml:"rsi_height"`
		AssetsHost  string `yaml:"assets_host"`
	} `yaml:"chart"`
	Snapshot struct {
		Headless bool          `yaml:"headless"`
		Timeout  time.Duration `yaml:"timeout"`
		Width    int           `yaml:"width"`
		Height   int           `yaml:"height"`
	} `yaml:"snapshot"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then .env and environment variable
// overrides, then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Snapshot.Headless = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QUANTLAB_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("BARS_DB_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("PROBE_CRON"); v != "" {
		cfg.Probe.Cron = v
	}
	if v := os.Getenv("PROBE_ENABLED"); v != "" {
		cfg.Probe.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	cfg.DataSource.Provider = strings.ToLower(strings.TrimSpace(cfg.DataSource.Provider))
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderYahoo
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/bars.db"
	}
	if cfg.Probe.Cron == "" {
		cfg.Probe.Cron = "0 */15 * * * *"
	}
	if cfg.Probe.Symbol == "" {
		cfg.Probe.Symbol = "SPY"
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 1700
	}
	if cfg.Chart.PriceHeight == 0 {
		cfg.Chart.PriceHeight = 700
	}
	if cfg.Chart.RSIHeight == 0 {
		cfg.Chart.RSIHeight = 300
	}
	if cfg.Snapshot.Timeout == 0 {
		cfg.Snapshot.Timeout = 60 * time.Second
	}
	if cfg.Snapshot.Width == 0 {
		cfg.Snapshot.Width = 1800
	}
	if cfg.Snapshot.Height == 0 {
		cfg.Snapshot.Height = 1200
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for provider %q", c.DataSource.Provider)
		}
	case ProviderSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for provider %q", c.DataSource.Provider)
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Chart.Width <= 0 || c.Chart.PriceHeight <= 0 || c.Chart.RSIHeight <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}
	if c.Probe.Enabled && strings.TrimSpace(c.Probe.Symbol) == "" {
		return fmt.Errorf("probe.symbol is required when probe is enabled")
	}
	return nil
}
