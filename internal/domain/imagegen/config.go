package imagegen

import (
	"time"

	"github.com/elidorascodex/tecflow/internal/infra/config"
)

// Config holds image generation client configuration.
type Config struct {
	APIKey    string
	BaseURL   string
	OutputDir string

	// PollInterval is the fixed wait between result polls.
	PollInterval time.Duration
	// PollTimeout bounds the total time spent polling one job.
	PollTimeout time.Duration

	// MaxConcurrent caps parallel batch generation.
	MaxConcurrent int

	// UploadPrefix is the object key prefix for uploaded artifacts.
	UploadPrefix string
}

// DefaultConfig returns default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://api.stability.ai/v2beta",
		OutputDir:     "output/images",
		PollInterval:  10 * time.Second,
		PollTimeout:   500 * time.Second,
		MaxConcurrent: 1,
		UploadPrefix:  "images/",
	}
}

// ConfigFrom converts the application configuration section.
func ConfigFrom(c config.StabilityConfig) *Config {
	cfg := DefaultConfig()
	cfg.APIKey = c.APIKey
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.OutputDir != "" {
		cfg.OutputDir = c.OutputDir
	}
	if c.PollInterval > 0 {
		cfg.PollInterval = c.PollInterval
	}
	if c.PollTimeout > 0 {
		cfg.PollTimeout = c.PollTimeout
	}
	if c.MaxConcurrent > 0 {
		cfg.MaxConcurrent = c.MaxConcurrent
	}
	if c.UploadPrefix != "" {
		cfg.UploadPrefix = c.UploadPrefix
	}
	return cfg
}
