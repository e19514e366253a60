// Package config exposes strongly typed application configuration structs
// loaded from YAML, with optional environment overrides from a .env file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes the market data collaborator: which venue connector to
// use, the traded pair, and the connector's retry and cadence knobs.
type Exchange struct {
	Provider       string `yaml:"provider"` // kraken | kraken-ws | stub
	Pair           string `yaml:"pair"`
	BaseURL        string `yaml:"base_url"`
	WSURL          string `yaml:"ws_url"`
	BookDepth      int    `yaml:"book_depth"`
	BarIntervalMin int    `yaml:"bar_interval_min"`
	RetryAttempts  int    `yaml:"retry_attempts"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

// StrategyParams groups the tunable knobs for the strategy variants.
type StrategyParams struct {
	WindowSize   int     `yaml:"window_size"`
	Theta        float64 `yaml:"theta"`
	DepthPct     float64 `yaml:"depth_pct"`
	ADXThreshold float64 `yaml:"adx_threshold"`
	PositionSize float64 `yaml:"position_size"`
}

// Strategy specifies which variant is active along with its parameters.
type Strategy struct {
	Mode   string         `yaml:"mode"` // sobi | trend | williamsr
	Params StrategyParams `yaml:"params"`
}

// Paper captures shadow execution settings.
type Paper struct {
	FillsPath string `yaml:"fills_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Strategy Strategy `yaml:"strategy"`
	Paper    Paper    `yaml:"paper"`
}

// Load reads a YAML file from disk and hydrates a Config struct. A .env
// file is loaded best-effort first; a few environment variables override
// the file so the same config can drive different pairs and venues.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best-effort

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyEnv()
	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ARTHUR_PAIR"); v != "" {
		c.Exchange.Pair = v
	}
	if v := os.Getenv("ARTHUR_PROVIDER"); v != "" {
		c.Exchange.Provider = v
	}
	if v := os.Getenv("ARTHUR_METRICS_ADDR"); v != "" {
		c.App.MetricsAddr = v
	}
	if v := os.Getenv("ARTHUR_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
