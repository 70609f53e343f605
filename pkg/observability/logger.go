package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/platinummonkey/extensions/pkg/contextkeys"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}[l]
}

// toLogrusLevel converts LogLevel to logrus.Level
func (l LogLevel) toLogrusLevel() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Standard correlation field names
const (
	FieldPluginID         = "pluginId"
	FieldExtensionPointID = "extensionPointId"
	FieldTitle            = "title"
	FieldProviderKey      = "providerKey"
	FieldRequestID        = "requestId"
	FieldRegistry         = "registry"
)

// Fields is a set of key/value pairs attached to a log line
type Fields map[string]interface{}

// Logger is the sink every registry, resolver and search provider writes to.
// Child returns a logger pre-tagged with the given fields.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warning(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Child(fields Fields) Logger
}

// LogrusLogger implements Logger on top of a logrus entry
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a JSON logger writing to output at the given level
func NewLogger(level LogLevel, output io.Writer) *LogrusLogger {
	if output == nil {
		output = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(output)
	l.SetLevel(level.toLogrusLevel())
	l.SetFormatter(&logrus.JSONFormatter{})

	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// NewLogrusLogger adapts an existing logrus logger, e.g. one configured by a host binary
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.New()
	}
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *LogrusLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// Child adds fields to the logger context
func (l *LogrusLogger) Child(fields Fields) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithField adds a single field to the logger context
func (l *LogrusLogger) WithField(key string, value interface{}) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

// WithError adds an error to the logger context
func (l *LogrusLogger) WithError(err error) *LogrusLogger {
	if err == nil {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithError(err)}
}

// Debug logs a debug message
func (l *LogrusLogger) Debug(msg string, keyvals ...interface{}) {
	l.with(keyvals).Debug(msg)
}

// Info logs an info message
func (l *LogrusLogger) Info(msg string, keyvals ...interface{}) {
	l.with(keyvals).Info(msg)
}

// Warning logs a warning message
func (l *LogrusLogger) Warning(msg string, keyvals ...interface{}) {
	l.with(keyvals).Warn(msg)
}

// Error logs an error message
func (l *LogrusLogger) Error(msg string, keyvals ...interface{}) {
	l.with(keyvals).Error(msg)
}

// with turns alternating key/value pairs into logrus fields. A trailing key
// without a value is logged under "!BADKEY", and error values are stringified.
func (l *LogrusLogger) with(keyvals []interface{}) *logrus.Entry {
	if len(keyvals) == 0 {
		return l.entry
	}

	fields := make(logrus.Fields, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		if i+1 >= len(keyvals) {
			fields["!BADKEY"] = key
			break
		}
		value := keyvals[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		fields[key] = value
	}

	return l.entry.WithFields(fields)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return contextkeys.WithLogger(ctx, logger)
}

// GetLogger retrieves the logger from context, falling back to an info-level stdout logger
func GetLogger(ctx context.Context) Logger {
	if logger, ok := ctx.Value(contextkeys.LoggerKey).(Logger); ok {
		return logger
	}
	return NewLogger(InfoLevel, os.Stdout)
}

// FromContext returns the context logger tagged with the request and plugin ids carried by ctx
func FromContext(ctx context.Context) Logger {
	logger := GetLogger(ctx)

	fields := Fields{}
	if requestID := contextkeys.GetRequestID(ctx); requestID != "" {
		fields[FieldRequestID] = requestID
	}
	if meta, ok := contextkeys.GetPluginMeta(ctx); ok {
		fields[FieldPluginID] = meta.ID
	}
	if len(fields) == 0 {
		return logger
	}

	return logger.Child(fields)
}
