package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineWorkers            = "ALMANAC_PIPELINE_WORKERS"
	EnvPipelineMaxContentLength   = "ALMANAC_PIPELINE_MAX_CONTENT_LENGTH"
	EnvPipelinePromptTextBudget   = "ALMANAC_PIPELINE_PROMPT_TEXT_BUDGET"
	EnvPipelineContentLoadTimeout = "ALMANAC_PIPELINE_CONTENT_LOAD_TIMEOUT"
)

// PipelineConfig holds the pipeline worker pool and policy settings.
type PipelineConfig struct {
	Workers            int    `toml:"workers"`
	MaxContentLength   int    `toml:"max_content_length"`
	PromptTextBudget   int    `toml:"prompt_text_budget"`
	ContentLoadTimeout string `toml:"content_load_timeout"`
	MetadataFooter     bool   `toml:"metadata_footer"`
}

// ContentLoadTimeoutDuration returns ContentLoadTimeout as a time.Duration.
func (c *PipelineConfig) ContentLoadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ContentLoadTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. MetadataFooter always
// applies since false is a valid overlay value.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MaxContentLength != 0 {
		c.MaxContentLength = overlay.MaxContentLength
	}
	if overlay.PromptTextBudget != 0 {
		c.PromptTextBudget = overlay.PromptTextBudget
	}
	if overlay.ContentLoadTimeout != "" {
		c.ContentLoadTimeout = overlay.ContentLoadTimeout
	}
	c.MetadataFooter = overlay.MetadataFooter
}

func (c *PipelineConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.MaxContentLength == 0 {
		c.MaxContentLength = 100_000
	}
	if c.PromptTextBudget == 0 {
		c.PromptTextBudget = 12_000
	}
	if c.ContentLoadTimeout == "" {
		c.ContentLoadTimeout = "10s"
	}
}

func (c *PipelineConfig) loadEnv() {
	setInt := func(envVar string, target *int) {
		if v := os.Getenv(envVar); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	setInt(EnvPipelineWorkers, &c.Workers)
	setInt(EnvPipelineMaxContentLength, &c.MaxContentLength)
	setInt(EnvPipelinePromptTextBudget, &c.PromptTextBudget)

	if v := os.Getenv(EnvPipelineContentLoadTimeout); v != "" {
		c.ContentLoadTimeout = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.MaxContentLength < 1 {
		return fmt.Errorf("max_content_length must be positive")
	}
	if c.PromptTextBudget < 1 {
		return fmt.Errorf("prompt_text_budget must be positive")
	}
	if _, err := time.ParseDuration(c.ContentLoadTimeout); err != nil {
		return fmt.Errorf("invalid content_load_timeout: %w", err)
	}
	return nil
}
