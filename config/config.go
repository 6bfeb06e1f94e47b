package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
}

// APIConfig holds everything needed to reach the inventory-loan backend.
type APIConfig struct {
	BaseURL         string        `yaml:"base_url"`
	TimeoutSeconds  int           `yaml:"timeout_seconds"`
	Timeout         time.Duration `yaml:"-"` // Ignored by YAML parser
	HTTPProxy       string        `yaml:"http_proxy"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateBurst       int           `yaml:"rate_burst"`
}

// SessionConfig holds the location of the persisted session credentials.
type SessionConfig struct {
	DBPath string `yaml:"db_path"`
}

// UIConfig holds the presentation-side constants shared by the views.
type UIConfig struct {
	ItemsPerPage int    `yaml:"items_per_page"`
	LoansPerPage int    `yaml:"loans_per_page"`
	PageWindow   int    `yaml:"page_window"`
	Timezone     string `yaml:"timezone"`
}

// Load reads the configuration from the given path. A missing file is not an
// error; the defaults describe a backend on localhost.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://127.0.0.1:8000/api"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 30
	}
	cfg.API.Timeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second

	if cfg.API.CacheTTLSeconds <= 0 {
		cfg.API.CacheTTLSeconds = 300
	}
	cfg.API.CacheTTL = time.Duration(cfg.API.CacheTTLSeconds) * time.Second

	if cfg.API.RateLimitPerSec <= 0 {
		cfg.API.RateLimitPerSec = 10
	}
	if cfg.API.RateBurst <= 0 {
		cfg.API.RateBurst = 5
	}

	if cfg.Session.DBPath == "" {
		cfg.Session.DBPath = "labloan.db"
	}

	if cfg.UI.ItemsPerPage <= 0 {
		cfg.UI.ItemsPerPage = 12
	}
	if cfg.UI.LoansPerPage <= 0 {
		cfg.UI.LoansPerPage = 10
	}
	if cfg.UI.PageWindow <= 0 {
		cfg.UI.PageWindow = 5
	}
	if cfg.UI.Timezone == "" {
		cfg.UI.Timezone = "Asia/Jakarta"
	}

	return &cfg, nil
}
