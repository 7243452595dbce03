package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
crawler:
  concurrency: 6
  queue_depth: 128
  page_size: 20
  store_page_size: 100
  page_delay_ms: 250
  timeout_seconds: 45
  provinces: [3, 2]
  user_agent: pricewatch-agent
vendors:
  bhx:
    listing_url: https://apibhx.tgdd.vn/Category/V2/GetCate
    stores_url: https://apibhx.tgdd.vn/Location/V2/GetStoresByLocation
    menu_url: https://apibhx.tgdd.vn/Menu/GetMenuV2
    product_base_url: https://www.bachhoaxanh.com
    referer: https://www.bachhoaxanh.com/
    origin: https://www.bachhoaxanh.com
    platform: webnew
session:
  mode: intercept
  start_url: https://www.bachhoaxanh.com
  api_host: apibhx.tgdd.vn
  nav_timeout_seconds: 30
translator:
  mode: http
  endpoint: http://translate.internal:5000/translate
db:
  dsn: postgres://crawler@localhost:5432/catalog
  max_conns: 16
pubsub:
  project_id: pricewatch
  topic_name: crawl-events
archive:
  mode: gcs
  gcs_bucket: pricewatch-raw
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Crawler.Concurrency != 6 || len(cfg.Crawler.Provinces) != 2 {
		t.Fatalf("expected crawler overrides to apply: %+v", cfg.Crawler)
	}
	vendor, ok := cfg.Vendor("BHX")
	if !ok || vendor.Platform != "webnew" {
		t.Fatalf("expected bhx vendor config: %+v", cfg.Vendors)
	}
	if cfg.Session.Mode != "intercept" || cfg.Session.APIHost != "apibhx.tgdd.vn" {
		t.Fatalf("expected intercept session config: %+v", cfg.Session)
	}
	if got := cfg.HTTPTimeout(); got != 45*time.Second {
		t.Fatalf("expected http timeout 45s, got %v", got)
	}
	if got := cfg.PageDelay(); got != 250*time.Millisecond {
		t.Fatalf("expected page delay 250ms, got %v", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 8080},
		Crawler: CrawlerConfig{
			Concurrency:    1,
			PageSize:       50,
			TimeoutSeconds: 10,
		},
		Session:    SessionConfig{Mode: "static", Token: "Bearer x"},
		Translator: TranslatorConfig{Mode: "passthrough"},
		Archive:    ArchiveConfig{Mode: "none"},
		DB:         DBConfig{DSN: "postgres://localhost/catalog"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Crawler.Concurrency = 0
				return c
			}(),
			want: "crawler.concurrency",
		},
		{
			name: "missing dsn",
			cfg: func() Config {
				c := base
				c.DB.DSN = ""
				return c
			}(),
			want: "db.dsn",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
		{
			name: "static session without token",
			cfg: func() Config {
				c := base
				c.Session.Token = ""
				return c
			}(),
			want: "session.token",
		},
		{
			name: "intercept session without start url",
			cfg: func() Config {
				c := base
				c.Session = SessionConfig{Mode: "intercept"}
				return c
			}(),
			want: "session.start_url",
		},
		{
			name: "http translator without endpoint",
			cfg: func() Config {
				c := base
				c.Translator = TranslatorConfig{Mode: "http"}
				return c
			}(),
			want: "translator.endpoint",
		},
		{
			name: "gcs archive without bucket",
			cfg: func() Config {
				c := base
				c.Archive = ArchiveConfig{Mode: "gcs"}
				return c
			}(),
			want: "archive.gcs_bucket",
		},
		{
			name: "vendor missing endpoints",
			cfg: func() Config {
				c := base
				c.Vendors = map[string]VendorConfig{"bhx": {ListingURL: "https://x"}}
				return c
			}(),
			want: "vendors.bhx",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
