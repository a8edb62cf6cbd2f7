package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvAnalysisEndpoint = "ALMANAC_ANALYSIS_ENDPOINT"
	EnvAnalysisModel    = "ALMANAC_ANALYSIS_MODEL"
	EnvAnalysisTimeout  = "ALMANAC_ANALYSIS_TIMEOUT"
)

// AnalysisConfig holds the external analysis service connection parameters.
type AnalysisConfig struct {
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
	Timeout  string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *AnalysisConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalysisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalysisConfig) Merge(overlay *AnalysisConfig) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *AnalysisConfig) loadDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:11434/v1/completions"
	}
	if c.Model == "" {
		c.Model = "llama3.2"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *AnalysisConfig) loadEnv() {
	if v := os.Getenv(EnvAnalysisEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvAnalysisModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvAnalysisTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *AnalysisConfig) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
