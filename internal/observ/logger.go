package observ

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log line as the "service" field.
const ServiceName = "auraloom"

// NewLogger builds the process logger for env at the given level. An
// unparseable level falls back to info.
func NewLogger(env, level string) (*zap.Logger, error) {
	return loggerConfig(env, level).Build(zap.Fields(zap.String("service", ServiceName)))
}

// loggerConfig picks the encoder for env.
//
// Production writes JSON with sampling, ISO8601 timestamps under "ts" and
// stack traces only from error level up. Everything else gets the
// console encoder with colored levels.
func loggerConfig(env, level string) zap.Config {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		// Warn-level stack traces drown out request logs during local runs.
		config.DisableStacktrace = true
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	return config
}
