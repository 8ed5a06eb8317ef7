// Package config holds runtime configuration for the API server and the
// collector. Values come from defaults, an optional YAML file, and
// environment variable overrides, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Scraper ScraperConfig `yaml:"scraper"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// AuthConfig holds the demo credential and token settings. PasswordHash,
// when set, takes precedence over the plaintext Password.
type AuthConfig struct {
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	PasswordHash    string        `yaml:"password_hash"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// ScraperConfig controls the catalog crawl and the dataset location.
type ScraperConfig struct {
	BaseURL       string        `yaml:"base_url"`
	MaxPages      int           `yaml:"max_pages"`
	DataDir       string        `yaml:"data_dir"`
	OutputFile    string        `yaml:"output_file"`
	CacheWindow   time.Duration `yaml:"cache_window"`
	Timeout       time.Duration `yaml:"timeout"`
	Delay         time.Duration `yaml:"delay"`
	UserAgent     string        `yaml:"user_agent"`
	BufferSize    int           `yaml:"buffer_size"`
	BatchSize     int           `yaml:"batch_size"`
	DedupeMaxSize int           `yaml:"dedupe_max_size"`
}

// OutputPath is the final dataset location.
func (sc ScraperConfig) OutputPath() string {
	return filepath.Join(sc.DataDir, sc.OutputFile)
}

// DefaultConfig returns the defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		Debug: false,
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Auth: AuthConfig{
			Username:        "admin",
			Password:        "senha",
			JWTSecret:       "dev-only-secret-change-me",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Scraper: ScraperConfig{
			BaseURL:       "https://books.toscrape.com",
			MaxPages:      50,
			DataDir:       "data",
			OutputFile:    "livros.csv",
			CacheWindow:   5 * time.Minute,
			Timeout:       10 * time.Second,
			Delay:         0,
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
			BufferSize:    512,
			BatchSize:     64,
			DedupeMaxSize: 4096,
		},
	}
}

// Load reads the YAML file at path (missing file is not an error), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// defaults + env only
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1..65535")
	}
	if c.Auth.Username == "" {
		return fmt.Errorf("auth username cannot be empty")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth password or password hash is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret cannot be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("refresh token ttl must be positive")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.Scraper.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid scraper base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("scraper base URL must include a host")
	}
	if c.Scraper.MaxPages <= 0 {
		return fmt.Errorf("scraper max pages must be positive")
	}
	if c.Scraper.DataDir == "" {
		return fmt.Errorf("scraper data dir cannot be empty")
	}
	if c.Scraper.OutputFile == "" {
		return fmt.Errorf("scraper output file cannot be empty")
	}
	if c.Scraper.CacheWindow < 0 {
		return fmt.Errorf("scraper cache window cannot be negative")
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper timeout must be positive")
	}
	if c.Scraper.Delay < 0 {
		return fmt.Errorf("scraper delay cannot be negative")
	}
	if c.Scraper.UserAgent == "" {
		return fmt.Errorf("scraper user agent cannot be empty")
	}
	if c.Scraper.BufferSize <= 0 {
		return fmt.Errorf("scraper buffer size must be positive")
	}
	if c.Scraper.BatchSize <= 0 {
		return fmt.Errorf("scraper batch size must be positive")
	}
	if c.Scraper.DedupeMaxSize <= 0 {
		return fmt.Errorf("scraper dedupe max size must be positive")
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("AUTH_PASSWORD_HASH"); v != "" {
		cfg.Auth.PasswordHash = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("AUTH_ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.AccessTokenTTL = d
		}
	}
	if v := os.Getenv("AUTH_REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.RefreshTokenTTL = d
		}
	}
	if v := os.Getenv("SCRAPER_BASE_URL"); v != "" {
		cfg.Scraper.BaseURL = v
	}
	if v := os.Getenv("SCRAPER_PAGES"); v != "" {
		if pages, err := strconv.Atoi(v); err == nil {
			cfg.Scraper.MaxPages = pages
		}
	}
	if v := os.Getenv("SCRAPER_DATA_DIR"); v != "" {
		cfg.Scraper.DataDir = v
	}
	if v := os.Getenv("SCRAPER_OUTPUT"); v != "" {
		cfg.Scraper.OutputFile = v
	}
	if v := os.Getenv("SCRAPER_CACHE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scraper.CacheWindow = d
		}
	}
}

func parseBool(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "yes", "YES":
		return true
	}
	return false
}
