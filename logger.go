package plivostream

import (
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelDebug logs everything including per-frame dispatch details.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo logs lifecycle events and above.
	LogLevelInfo
	// LogLevelWarn logs warnings and above.
	LogLevelWarn
	// LogLevelError logs only errors.
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a string to LogLevel. Unrecognized values map to Info.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	case "OFF":
		return LogLevelOff
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Logger provides leveled structured logging for the SDK, backed by zap.
// All SDK log lines carry an event name plus structured fields.
type Logger struct {
	zl  *zap.Logger
	off bool
}

// NewLogger creates a logger writing JSON lines to stderr at the given level.
func NewLogger(level LogLevel) *Logger {
	if level >= LogLevelOff {
		return &Logger{zl: zap.NewNop(), off: true}
	}
	encCfg := zapcore.EncoderConfig{
		LevelKey:       "level",
		TimeKey:        "timestamp",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level.zapLevel(),
	)
	return &Logger{zl: zap.New(core).Named("plivostream")}
}

// NewLoggerFromEnv creates a logger with the level taken from the
// PLIVOSTREAM_LOG_LEVEL environment variable.
func NewLoggerFromEnv() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("PLIVOSTREAM_LOG_LEVEL")))
}

// NewZapLogger wraps an existing zap logger, for applications that already
// carry one and want SDK logs in the same stream.
func NewZapLogger(zl *zap.Logger) *Logger {
	if zl == nil {
		return &Logger{zl: zap.NewNop(), off: true}
	}
	return &Logger{zl: zl}
}

// With returns a logger that includes the given fields in every log line.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.off {
		return l
	}
	return &Logger{zl: l.zl.With(zapFields(fields)...)}
}

// Debug logs debug-level messages.
func (l *Logger) Debug(event string, fields map[string]any) {
	if l == nil || l.off {
		return
	}
	l.zl.Debug(event, zapFields(fields)...)
}

// Info logs info-level messages.
func (l *Logger) Info(event string, fields map[string]any) {
	if l == nil || l.off {
		return
	}
	l.zl.Info(event, zapFields(fields)...)
}

// Warn logs warning-level messages.
func (l *Logger) Warn(event string, fields map[string]any) {
	if l == nil || l.off {
		return
	}
	l.zl.Warn(event, zapFields(fields)...)
}

// Error logs error-level messages.
func (l *Logger) Error(event string, fields map[string]any) {
	if l == nil || l.off {
		return
	}
	l.zl.Error(event, zapFields(fields)...)
}

// zapFields converts a field map to zap fields in deterministic key order.
func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	return zf
}
