// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig            `mapstructure:"server"`
	Auth       AuthConfig              `mapstructure:"auth"`
	Crawler    CrawlerConfig           `mapstructure:"crawler"`
	Vendors    map[string]VendorConfig `mapstructure:"vendors"`
	Session    SessionConfig           `mapstructure:"session"`
	Translator TranslatorConfig        `mapstructure:"translator"`
	DB         DBConfig                `mapstructure:"db"`
	PubSub     PubSubConfig            `mapstructure:"pubsub"`
	Archive    ArchiveConfig           `mapstructure:"archive"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs the crawl pipeline.
type CrawlerConfig struct {
	Concurrency    int    `mapstructure:"concurrency"`
	QueueDepth     int    `mapstructure:"queue_depth"`
	PageSize       int    `mapstructure:"page_size"`
	StorePageSize  int    `mapstructure:"store_page_size"`
	PageDelayMs    int    `mapstructure:"page_delay_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Provinces      []int  `mapstructure:"provinces"`
	UserAgent      string `mapstructure:"user_agent"`
}

// VendorConfig holds one chain's API endpoints, keyed by chain code.
type VendorConfig struct {
	ListingURL     string `mapstructure:"listing_url"`
	StoresURL      string `mapstructure:"stores_url"`
	MenuURL        string `mapstructure:"menu_url"`
	ProductBaseURL string `mapstructure:"product_base_url"`
	Referer        string `mapstructure:"referer"`
	Origin         string `mapstructure:"origin"`
	APIKey         string `mapstructure:"api_key"`
	Platform       string `mapstructure:"platform"`
}

// SessionConfig selects how vendor credentials are acquired.
type SessionConfig struct {
	// Mode is "static" (token from config) or "intercept" (headless
	// browser capture).
	Mode          string `mapstructure:"mode"`
	Token         string `mapstructure:"token"`
	DeviceID      string `mapstructure:"device_id"`
	StartURL      string `mapstructure:"start_url"`
	APIHost       string `mapstructure:"api_host"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
}

// TranslatorConfig configures the name translation service.
type TranslatorConfig struct {
	// Mode is "http" or "passthrough".
	Mode           string `mapstructure:"mode"`
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api_key"`
	Source         string `mapstructure:"source"`
	Target         string `mapstructure:"target"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ArchiveConfig selects where raw vendor payloads are archived.
type ArchiveConfig struct {
	// Mode is "none", "memory" or "gcs".
	Mode      string `mapstructure:"mode"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.queue_depth", 64)
	v.SetDefault("crawler.page_size", 50)
	v.SetDefault("crawler.store_page_size", 50)
	v.SetDefault("crawler.page_delay_ms", 500)
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("crawler.user_agent", "pricewatch-bot/0.1")
	v.SetDefault("session.mode", "static")
	v.SetDefault("session.nav_timeout_seconds", 45)
	v.SetDefault("translator.mode", "passthrough")
	v.SetDefault("translator.source", "vi")
	v.SetDefault("translator.target", "en")
	v.SetDefault("translator.timeout_seconds", 10)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("archive.mode", "none")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.PageSize <= 0 {
		return fmt.Errorf("crawler.page_size must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Session.Mode {
	case "static":
		if c.Session.Token == "" {
			return fmt.Errorf("session.token must be set in static mode")
		}
	case "intercept":
		if c.Session.StartURL == "" || c.Session.APIHost == "" {
			return fmt.Errorf("session.start_url and session.api_host must be set in intercept mode")
		}
	default:
		return fmt.Errorf("session.mode must be static or intercept")
	}
	switch c.Translator.Mode {
	case "passthrough":
	case "http":
		if c.Translator.Endpoint == "" {
			return fmt.Errorf("translator.endpoint must be set in http mode")
		}
	default:
		return fmt.Errorf("translator.mode must be http or passthrough")
	}
	switch c.Archive.Mode {
	case "none", "memory":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set in gcs mode")
		}
	default:
		return fmt.Errorf("archive.mode must be none, memory or gcs")
	}
	for code, vendor := range c.Vendors {
		if vendor.ListingURL == "" || vendor.MenuURL == "" || vendor.StoresURL == "" {
			return fmt.Errorf("vendors.%s must set listing_url, stores_url and menu_url", code)
		}
	}
	return nil
}

// Vendor returns the endpoint config for a chain code ("bhx", "winmart").
func (c Config) Vendor(code string) (VendorConfig, bool) {
	vendor, ok := c.Vendors[strings.ToLower(code)]
	return vendor, ok
}

// HTTPTimeout converts the crawler timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// PageDelay converts the inter-page delay into a duration.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Crawler.PageDelayMs) * time.Millisecond
}
