// Package logger provides the structured logger shared by every component.
// It is a thin wrapper over logrus that fixes the field conventions
// (component, trace_id) used throughout the service.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoggingConfig controls how a Logger renders entries.
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
	Output string // "stdout", "stderr" or a file path
}

// Logger is a logrus logger bound to a component name.
type Logger struct {
	*logrus.Logger
	component string
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg LoggingConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetOutput(openOutput(cfg.Output))
	return &Logger{Logger: l}
}

// NewDefault returns an info-level text logger tagged with component.
func NewDefault(component string) *Logger {
	log := New(LoggingConfig{Level: "info", Format: "text"})
	log.component = component
	return log
}

// Named returns a logger sharing the same sink but tagged with component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

// Component reports the component name the logger was tagged with.
func (l *Logger) Component() string { return l.component }

func (l *Logger) entry() *logrus.Entry {
	if l.component == "" {
		return logrus.NewEntry(l.Logger)
	}
	return l.Logger.WithField("component", l.component)
}

// WithError attaches err to a new entry.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry().WithError(err)
}

// WithField attaches a single field to a new entry.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry().WithField(key, value)
}

// WithFields attaches fields to a new entry.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.entry().WithFields(fields)
}

// WithContext returns an entry carrying the trace id stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	e := l.entry()
	if id := TraceIDFrom(ctx); id != "" {
		e = e.WithField("trace_id", id)
	}
	return e
}

// LogRequest writes one access log line for a served request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	e := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	})
	switch {
	case status >= 500:
		e.Error("request failed")
	case status >= 400:
		e.Warn("request completed")
	default:
		e.Info("request completed")
	}
}

func openOutput(out string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(out)) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout
	}
	return f
}

type traceIDKey struct{}

// NewTraceID returns a fresh request trace id.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores id in ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFrom returns the trace id stored in ctx or "".
func TraceIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
