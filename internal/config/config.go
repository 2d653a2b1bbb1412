package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/FeedLens/internal/analytics"
)

const appName = "feedlens"

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feeds     []Feed    `yaml:"feeds"`
	Analytics Analytics `yaml:"analytics"`
	Scoring   Scoring   `yaml:"scoring"`
	Cluster   Cluster   `yaml:"clustering"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

// Feed is a subscribed RSS/Atom feed. Active defaults to true.
type Feed struct {
	URL    string `yaml:"url"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

// IsActive reports whether the feed should be collected and counted.
func (f Feed) IsActive() bool {
	return f.Active == nil || *f.Active
}

type Analytics struct {
	DefaultRange string `yaml:"default_range"`
}

// Scoring selects the LLM used to rate article sentiment.
type Scoring struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	BatchSize   int    `yaml:"batch_size"`
}

type Cluster struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	Range             string  `yaml:"range"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for feedlens.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DataDir returns the XDG data directory for feedlens.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// ResolveConfigPath finds the config file following priority:
// explicit path > $XDG_CONFIG_HOME/feedlens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'feedlens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Analytics: Analytics{DefaultRange: "30"},
		Scoring: Scoring{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			BatchSize:   100,
		},
		Cluster: Cluster{DistanceThreshold: 1.0, Range: "7"},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if _, err := analytics.ParseTimeRange(cfg.Analytics.DefaultRange); err != nil {
		return nil, fmt.Errorf("analytics.default_range: %w", err)
	}
	if _, err := analytics.ParseTimeRange(cfg.Cluster.Range); err != nil {
		return nil, fmt.Errorf("clustering.range: %w", err)
	}
	if cfg.Cluster.DistanceThreshold <= 0 {
		return nil, fmt.Errorf("clustering.distance_threshold must be positive, got %v", cfg.Cluster.DistanceThreshold)
	}
	for i, f := range cfg.Feeds {
		if f.URL == "" {
			return nil, fmt.Errorf("feeds[%d]: url is required", i)
		}
	}

	return cfg, nil
}

// DefaultRange returns the configured dashboard range. parse has already
// validated it.
func (c *Config) DefaultRange() analytics.TimeRange {
	r, err := analytics.ParseTimeRange(c.Analytics.DefaultRange)
	if err != nil {
		return analytics.Range30
	}
	return r
}

// ClusterRange returns the window clustering runs over.
func (c *Config) ClusterRange() analytics.TimeRange {
	r, err := analytics.ParseTimeRange(c.Cluster.Range)
	if err != nil {
		return analytics.Range7
	}
	return r
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "feedlens.db")
}
