package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	llmhttp "github.com/bkyoung/pull-analyzer/internal/adapter/llm/http"
	"github.com/bkyoung/pull-analyzer/internal/config"
)

// NewLogger builds the run logger. Logs go to stderr so the report on
// stdout stays machine-parseable. Verbose forces debug level
// regardless of configured level.
func NewLogger(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "error":
		level = zapcore.ErrorLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// RequestLogger adapts the zap run logger to the structured
// request/response logger the HTTP adapters expect.
type RequestLogger struct {
	logger *zap.Logger
}

// NewRequestLogger creates a request logger over the run logger.
func NewRequestLogger(logger *zap.Logger) *RequestLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestLogger{logger: logger}
}

// LogRequest logs an outgoing API request.
func (l *RequestLogger) LogRequest(ctx context.Context, req llmhttp.RequestLog) {
	l.logger.Info("invoking",
		zap.String("provider", req.Provider),
		zap.String("group", req.Group),
		zap.Int("messages", req.Messages))
	l.logger.Debug("request detail",
		zap.String("provider", req.Provider),
		zap.String("group", req.Group),
		zap.String("url", req.URL))
}

// LogResponse logs a completed API call.
func (l *RequestLogger) LogResponse(ctx context.Context, resp llmhttp.ResponseLog) {
	l.logger.Info("completed",
		zap.String("provider", resp.Provider),
		zap.String("group", resp.Group),
		zap.Duration("duration", resp.Duration),
		zap.Int("status_code", resp.StatusCode))
}

// LogError logs a failed API call.
func (l *RequestLogger) LogError(ctx context.Context, errLog llmhttp.ErrorLog) {
	l.logger.Error("upstream call failed",
		zap.String("provider", errLog.Provider),
		zap.String("group", errLog.Group),
		zap.Duration("duration", errLog.Duration),
		zap.Int("status_code", errLog.StatusCode),
		zap.Bool("retryable", errLog.Retryable),
		zap.Error(errLog.Error))
}
