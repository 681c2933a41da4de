package http

import (
	"context"
	"time"
)

// Logger provides structured logging for upstream API calls. Adapters
// accept a nil Logger and skip logging entirely.
type Logger interface {
	// LogRequest logs an outgoing API request.
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing info.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error.
	LogError(ctx context.Context, err ErrorLog)
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider  string
	Group     string
	URL       string
	Timestamp time.Time
	Messages  int
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider   string
	Group      string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Provider   string
	Group      string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	StatusCode int
	Retryable  bool
}
