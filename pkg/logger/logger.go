package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewNop returns a logger that discards everything, for tests and for library
// callers that do not care about diagnostics.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
