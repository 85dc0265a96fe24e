package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Errorf("App.Port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Catalog.PageSize != 18 {
		t.Errorf("Catalog.PageSize = %d, want 18", cfg.Catalog.PageSize)
	}
	if cfg.Catalog.ContactPhone != "51997276313" {
		t.Errorf("Catalog.ContactPhone = %q", cfg.Catalog.ContactPhone)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("CATALOG_PAGE_SIZE", "24")
	t.Setenv("CATALOG_CMS_API_KEY", "secret")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Port != 9090 || cfg.Database.Driver != "mysql" || cfg.Catalog.PageSize != 24 {
		t.Errorf("overrides not applied: %+v %+v %+v", cfg.App, cfg.Database, cfg.Catalog)
	}
	if cfg.Catalog.CMS.APIKey != "secret" {
		t.Errorf("CMS.APIKey = %q", cfg.Catalog.CMS.APIKey)
	}
	if cfg.Session.TTL != 5*time.Minute {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.App.Port = 0 }, "app.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "db.driver"},
		{"bad page size", func(c *Config) { c.Catalog.PageSize = 0 }, "page_size"},
		{"cms without url", func(c *Config) {
			c.Catalog.DataSource = DataSourceCMS
			c.Catalog.CMS.BaseURL = ""
		}, "base_url"},
		{"bad rate limit", func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.Limit = 0
		}, "ratelimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
