// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cascadialive/showcrawler/internal/scrape"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Logging   LoggingConfig       `mapstructure:"logging"`
	Scraper   ScraperConfig       `mapstructure:"scraper"`
	Store     StoreConfig         `mapstructure:"store"`
	RunLog    RunLogConfig        `mapstructure:"runlog"`
	Snapshot  SnapshotConfig      `mapstructure:"snapshot"`
	Publisher PublisherConfig     `mapstructure:"publisher"`
	Schedule  ScheduleConfig      `mapstructure:"schedule"`
	Sites     []scrape.SiteConfig `mapstructure:"sites"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig governs the HTTP fetcher shared by all sites.
type ScraperConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

// StoreConfig points at the remote record store.
type StoreConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	ProjectID      string `mapstructure:"project_id"`
	Collection     string `mapstructure:"collection"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RunLogConfig selects the run-history backend.
type RunLogConfig struct {
	Provider string `mapstructure:"provider"` // postgres, memory, noop
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// SnapshotConfig selects where raw page snapshots are archived.
type SnapshotConfig struct {
	Provider string `mapstructure:"provider"` // gcs, local, noop
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Dir      string `mapstructure:"dir"`
}

// PublisherConfig selects the run-event backend.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"` // pubsub, memory, noop
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ScheduleConfig controls the periodic background trigger.
type ScheduleConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHOWCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	for i := range cfg.Sites {
		cfg.Sites[i] = cfg.Sites[i].ApplyDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 300)
	v.SetDefault("logging.development", true)
	v.SetDefault("scraper.user_agent", "showcrawler/1.0 (+https://github.com/cascadialive/showcrawler)")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.max_concurrency", 2)
	v.SetDefault("store.collection", "shows")
	v.SetDefault("store.timeout_seconds", 15)
	v.SetDefault("runlog.provider", "noop")
	v.SetDefault("runlog.table", "pipeline_runs")
	v.SetDefault("snapshot.provider", "noop")
	v.SetDefault("snapshot.prefix", "snapshots")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.interval_minutes", 1440)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store.base_url must be set")
	}
	if len(c.Sites) == 0 {
		return fmt.Errorf("at least one site must be configured")
	}
	seen := make(map[string]struct{}, len(c.Sites))
	for _, site := range c.Sites {
		if err := site.Validate(); err != nil {
			return err
		}
		if _, dup := seen[site.Name]; dup {
			return fmt.Errorf("duplicate site name %q", site.Name)
		}
		seen[site.Name] = struct{}{}
	}
	if c.RunLog.Provider == "postgres" && c.RunLog.DSN == "" {
		return fmt.Errorf("runlog.dsn must be set when runlog.provider is postgres")
	}
	if c.Snapshot.Provider == "gcs" && c.Snapshot.Bucket == "" {
		return fmt.Errorf("snapshot.bucket must be set when snapshot.provider is gcs")
	}
	if c.Publisher.Provider == "pubsub" && (c.Publisher.ProjectID == "" || c.Publisher.Topic == "") {
		return fmt.Errorf("publisher.project_id and publisher.topic must be set when publisher.provider is pubsub")
	}
	if c.Schedule.Enabled && c.Schedule.IntervalMinutes <= 0 {
		return fmt.Errorf("schedule.interval_minutes must be > 0 when schedule is enabled")
	}
	return nil
}

// RequestTimeout returns the HTTP handler timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ScraperTimeout returns the per-fetch timeout.
func (c Config) ScraperTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// StoreTimeout returns the record-store request timeout.
func (c Config) StoreTimeout() time.Duration {
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// ScheduleInterval returns the background trigger period.
func (c Config) ScheduleInterval() time.Duration {
	return time.Duration(c.Schedule.IntervalMinutes) * time.Minute
}
