package config

// Settings represents the ambient runtime configuration: everything
// that tunes how the tool talks to its upstreams, as opposed to the
// manifest, which says what to talk to.
type Settings struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`

	// OverloadStatus is the status code the completion endpoint uses
	// to signal transient overload. Anything else non-200 is fatal.
	OverloadStatus int `yaml:"overloadStatus"`
}

// ConcurrencyConfig bounds the fan-out phases.
type ConcurrencyConfig struct {
	// MaxWorkers caps in-flight conversation fetches and completion
	// requests per phase. Zero or negative means one worker per item.
	MaxWorkers int `yaml:"maxWorkers"`
}

// RateLimitConfig throttles completion requests.
type RateLimitConfig struct {
	// RequestsPerSecond of zero disables throttling.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig configures the run logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, error
	Format string `yaml:"format"` // json, console
}
