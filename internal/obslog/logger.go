// Package obslog builds the zap logger every long-running process starts
// with, matching the structured "action/result" logging convention used
// throughout the pipeline's stages.
package obslog

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger at the given level, falling back to
// info on an unrecognized level string.
func New(component string, level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("component", component))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Action logs a single structured "action: X | result: success|fail" style
// event, mirroring the logging convention the system was built around.
func Action(logger *zap.Logger, action string, err error, fields ...zap.Field) {
	result := "success"
	if err != nil {
		result = "fail"
		fields = append(fields, zap.Error(err))
	}
	fields = append(fields, zap.String("action", action), zap.String("result", result))
	if err != nil {
		logger.Error("action_result", fields...)
		return
	}
	logger.Info("action_result", fields...)
}
