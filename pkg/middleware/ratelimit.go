package middleware

import (
	"net/http"
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds token-bucket settings for the API rate limiter.
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// RateLimitEnv maps rate limit config fields to environment variable names.
type RateLimitEnv struct {
	Enabled string
	RPS     string
	Burst   string
}

// Finalize applies defaults and environment variable overrides.
func (c *RateLimitConfig) Finalize(env *RateLimitEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies; numeric
// fields only when non-zero.
func (c *RateLimitConfig) Merge(overlay *RateLimitConfig) {
	c.Enabled = overlay.Enabled

	if overlay.RPS != 0 {
		c.RPS = overlay.RPS
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
}

func (c *RateLimitConfig) loadDefaults() {
	if c.RPS <= 0 {
		c.RPS = 50
	}
	if c.Burst <= 0 {
		c.Burst = 100
	}
}

func (c *RateLimitConfig) loadEnv(env *RateLimitEnv) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.RPS != "" {
		if v := os.Getenv(env.RPS); v != "" {
			if rps, err := strconv.ParseFloat(v, 64); err == nil && rps > 0 {
				c.RPS = rps
			}
		}
	}
	if env.Burst != "" {
		if v := os.Getenv(env.Burst); v != "" {
			if burst, err := strconv.Atoi(v); err == nil && burst > 0 {
				c.Burst = burst
			}
		}
	}
}

// RateLimit returns middleware enforcing a shared token bucket across all
// requests. Requests beyond the budget receive 429.
func RateLimit(cfg *RateLimitConfig) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Enabled && !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
