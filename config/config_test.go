package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero port",
			mutate: func(cfg *Config) {
				cfg.Server.Port = 0
			},
			wantErr: "port",
		},
		{
			name: "empty username",
			mutate: func(cfg *Config) {
				cfg.Auth.Username = ""
			},
			wantErr: "username",
		},
		{
			name: "no password or hash",
			mutate: func(cfg *Config) {
				cfg.Auth.Password = ""
				cfg.Auth.PasswordHash = ""
			},
			wantErr: "password",
		},
		{
			name: "empty secret",
			mutate: func(cfg *Config) {
				cfg.Auth.JWTSecret = ""
			},
			wantErr: "secret",
		},
		{
			name: "zero access ttl",
			mutate: func(cfg *Config) {
				cfg.Auth.AccessTokenTTL = 0
			},
			wantErr: "access token ttl",
		},
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.Scraper.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "url without host",
			mutate: func(cfg *Config) {
				cfg.Scraper.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "zero max pages",
			mutate: func(cfg *Config) {
				cfg.Scraper.MaxPages = 0
			},
			wantErr: "max pages",
		},
		{
			name: "negative cache window",
			mutate: func(cfg *Config) {
				cfg.Scraper.CacheWindow = -time.Minute
			},
			wantErr: "cache window",
		},
		{
			name: "zero timeout",
			mutate: func(cfg *Config) {
				cfg.Scraper.Timeout = 0
			},
			wantErr: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Scraper.MaxPages != 50 {
		t.Errorf("max pages = %d, want 50", cfg.Scraper.MaxPages)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "server:\n  port: 9001\nscraper:\n  max_pages: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SCRAPER_PAGES", "7")
	t.Setenv("AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001 from file", cfg.Server.Port)
	}
	if cfg.Scraper.MaxPages != 7 {
		t.Errorf("max pages = %d, want 7 from env", cfg.Scraper.MaxPages)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q, want env override", cfg.Auth.JWTSecret)
	}
}

func TestOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scraper.DataDir = "data"
	cfg.Scraper.OutputFile = "livros.csv"
	if got := cfg.Scraper.OutputPath(); got != filepath.Join("data", "livros.csv") {
		t.Errorf("output path = %q", got)
	}
}
