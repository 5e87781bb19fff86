package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "SENDPAIR_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks SENDPAIR_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		SetLogger(zap.NewNop())
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

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetLogger(built)
	return nil
}

// InitializeFromEnv initializes the logger from the SENDPAIR_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
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
		// Unknown level - use info when explicitly set to something
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use this to install an
// observer core.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()

	if l == nil {
		// Silent until initialized
		return zap.NewNop()
	}
	return l
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

// LogSettingsEvent logs a settings coordinator event such as a mutation,
// a persisted write or a platform adapter call.
func LogSettingsEvent(event string, version uint64, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("event", event),
		zap.Uint64("version", version),
	}, fields...)
	Debug("Settings event", all...)
}

// LogPairingEvent logs a step of the pairing pipeline.
func LogPairingEvent(event string, fields ...zap.Field) {
	all := append([]zap.Field{zap.String("event", event)}, fields...)
	Info("Pairing event", all...)
}

// LogHTTPRequest logs an API request
func LogHTTPRequest(remoteAddr, method, path string, statusCode int) {
	Info("HTTP request",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
	)
}

// Redact shortens a raw scan payload for logging. Payloads can be long and
// are user-controlled, so only a prefix is kept.
func Redact(payload string) string {
	const max = 64
	if len(payload) <= max {
		return payload
	}
	return payload[:max] + "..."
}

// Sync flushes any buffered log entries
func Sync() {
	_ = GetLogger().Sync()
}
