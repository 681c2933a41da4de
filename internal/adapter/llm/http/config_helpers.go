package http

import (
	"time"

	"github.com/bkyoung/pull-analyzer/internal/config"
)

// ParseTimeout parses the configured timeout, falling back to the
// default. Negative durations are rejected (would cause a runtime
// panic in http.Client.Timeout).
func ParseTimeout(configured string, defaultVal time.Duration) time.Duration {
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d >= 0 {
			return d
		}
	}
	if defaultVal < 0 {
		return 60 * time.Second
	}
	return defaultVal
}

// BuildRetryConfig creates RetryConfig from the global HTTP settings.
func BuildRetryConfig(httpCfg config.HTTPConfig) RetryConfig {
	cfg := DefaultRetryConfig()

	if httpCfg.MaxRetries > 0 {
		cfg.MaxRetries = httpCfg.MaxRetries
	}
	cfg.InitialBackoff = parseDuration(httpCfg.InitialBackoff, cfg.InitialBackoff)
	cfg.MaxBackoff = parseDuration(httpCfg.MaxBackoff, cfg.MaxBackoff)
	if httpCfg.BackoffMultiplier > 0 {
		cfg.Multiplier = httpCfg.BackoffMultiplier
	}

	return cfg
}

// parseDuration parses a duration string with a fallback default.
// Negative durations are rejected to prevent invalid backoff values.
func parseDuration(configured string, defaultVal time.Duration) time.Duration {
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}
