package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// User identity and entitlement for this device session
	User UserConfig `koanf:"user"`

	// Ads settings for the pre-track placement
	Ads AdsConfig `koanf:"ads"`

	// Attribution settings for validated-play counting
	Attribution AttributionConfig `koanf:"attribution"`

	// Queue behavior settings
	Queue QueueConfig `koanf:"queue"`

	// Media load settings
	Media MediaConfig `koanf:"media"`

	// Analytics collector (emission disabled when URL is empty)
	Analytics AnalyticsConfig `koanf:"analytics"`

	// Logging
	Logs LogsConfig `koanf:"logs"`
}

// UserConfig identifies the user this device session belongs to.
type UserConfig struct {
	ID      string `koanf:"id"`
	Premium bool   `koanf:"premium"`
}

// AdsConfig holds ad insertion configuration.
type AdsConfig struct {
	DailyCap    int       `koanf:"daily_cap"`   // per-user per-ad cap (default: 3)
	Probability float64   `koanf:"probability"` // Bernoulli gate (default: 0.8)
	Placement   string    `koanf:"placement"`   // placement identifier (default: "pre-track")
	Catalog     []AdEntry `koanf:"catalog"`     // local stand-in for the catalog service
}

// AdEntry is one configured advertisement.
type AdEntry struct {
	ID         string `koanf:"id"`
	AudioURI   string `koanf:"audio_uri"`
	ClickURI   string `koanf:"click_uri"`
	Advertiser string `koanf:"advertiser"`
}

// AttributionConfig holds validated-play configuration.
type AttributionConfig struct {
	ThresholdSeconds int    `koanf:"threshold_seconds"` // continuous-listen threshold (default: 30)
	ResumePolicy     string `koanf:"resume_policy"`     // "cumulative" or "restart" (default: "cumulative")
}

// QueueConfig holds queue behavior configuration.
type QueueConfig struct {
	RepeatCycle string `koanf:"repeat_cycle"` // "none-one-all" or "none-all-one" (default: "none-one-all")
	ShuffleDraw string `koanf:"shuffle_draw"` // "full" or "permutation" (default: "full")
}

// MediaConfig holds media load configuration.
type MediaConfig struct {
	LoadTimeoutSeconds int `koanf:"load_timeout_seconds"` // readiness timeout (default: 10)
}

// AnalyticsConfig holds collector configuration.
type AnalyticsConfig struct {
	CollectorURL string `koanf:"collector_url"`
	DeviceClass  string `koanf:"device_class"` // reported on impressions (default: "desktop")
}

// LogsConfig holds logging configuration.
type LogsConfig struct {
	Level string `koanf:"level"` // logrus level name (default: "info")
	File  string `koanf:"file"`  // empty means stderr
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in log file path
	if cfg.Logs.File != "" {
		cfg.Logs.File = expandPath(cfg.Logs.File)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/aria/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aria", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetAds returns the ads configuration with defaults applied.
func (c *Config) GetAds() AdsConfig {
	cfg := c.Ads
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = 3
	}
	if cfg.Probability <= 0 || cfg.Probability > 1 {
		cfg.Probability = 0.8
	}
	if cfg.Placement == "" {
		cfg.Placement = "pre-track"
	}
	return cfg
}

// GetAttribution returns the attribution configuration with defaults applied.
func (c *Config) GetAttribution() AttributionConfig {
	cfg := c.Attribution
	if cfg.ThresholdSeconds <= 0 {
		cfg.ThresholdSeconds = 30
	}
	if cfg.ResumePolicy != "restart" {
		cfg.ResumePolicy = "cumulative"
	}
	return cfg
}

// GetQueue returns the queue configuration with defaults applied.
func (c *Config) GetQueue() QueueConfig {
	cfg := c.Queue
	if cfg.RepeatCycle != "none-all-one" {
		cfg.RepeatCycle = "none-one-all"
	}
	if cfg.ShuffleDraw != "permutation" {
		cfg.ShuffleDraw = "full"
	}
	return cfg
}

// GetMedia returns the media configuration with defaults applied.
func (c *Config) GetMedia() MediaConfig {
	cfg := c.Media
	if cfg.LoadTimeoutSeconds <= 0 {
		cfg.LoadTimeoutSeconds = 10
	}
	return cfg
}

// GetAnalytics returns the analytics configuration with defaults applied.
func (c *Config) GetAnalytics() AnalyticsConfig {
	cfg := c.Analytics
	if cfg.DeviceClass == "" {
		cfg.DeviceClass = "desktop"
	}
	return cfg
}

// HasCollector returns true if an analytics collector is configured.
func (c *Config) HasCollector() bool {
	return c.Analytics.CollectorURL != ""
}
