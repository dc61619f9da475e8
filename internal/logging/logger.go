package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "SMARTWEB_LOG_LEVEL"

// maxSnippet bounds how much of a response body is copied into a log field.
const maxSnippet = 256

// Initialize creates a new logger with the specified level.
// If level is empty, it checks SMARTWEB_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		return zapcore.InfoLevel
	}
}

// InitializeFromEnv initializes the logger from the SMARTWEB_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger. Tests use it to install an observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogSessionEvent logs a session lifecycle event for a SmartWeb host
func LogSessionEvent(host string, event string, fields ...zap.Field) {
	Info("Session event",
		append([]zap.Field{
			zap.String("host", host),
			zap.String("event", event),
		}, fields...)...,
	)
}

// LogExchange logs one HTTP exchange with the SmartWeb server
func LogExchange(method, url string, status int, finalURL string, size int, elapsed time.Duration) {
	Debug("HTTP exchange",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", status),
		zap.String("final_url", finalURL),
		zap.Int("bytes", size),
		zap.Duration("elapsed", elapsed),
	)
}

// LogBodySnippet logs the start of a response body (useful when a page
// does not have the expected shape)
func LogBodySnippet(label string, body []byte) {
	Debug(label,
		zap.Int("length", len(body)),
		zap.String("snippet", Snippet(body)),
	)
}

// Snippet returns a printable prefix of body suitable for a log field
func Snippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	truncated := len(body) > maxSnippet
	if truncated {
		body = body[:maxSnippet]
	}

	result := make([]byte, len(body))
	for i, b := range body {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	if truncated {
		return string(result) + "..."
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
