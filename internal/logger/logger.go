// Why this file: ./internal/logger/logger.go
// This builds the shared zap logger: console output always, plus a dated log
// file when file logging is enabled. Every package receives this logger and
// attaches its own fields.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger at the given level ("debug", "info", "warn",
// "error").
func New(logLevel string, enableFile bool, logDir string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	config := zap.NewProductionConfig()
	config.Level.SetLevel(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	outputs := []string{"stdout"}
	if enableFile {
		if logDir == "" {
			logDir = "./logs"
		}
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile := filepath.Join(logDir, fmt.Sprintf("aiquery_%s.log", time.Now().Format("2006-01-02")))
		outputs = append(outputs, logFile)
	}
	config.OutputPaths = outputs

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return zapLogger, nil
}
