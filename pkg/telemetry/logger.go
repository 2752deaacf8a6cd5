package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared by every ucm log line.
const (
	FieldComponent   = "component"
	FieldUseCaseID   = "use_case_id"
	FieldUseCaseType = "use_case_type"
	FieldStackID     = "stack_id"
	FieldOperation   = "operation"
	FieldTraceID     = "trace_id"
)

// Logger is a zerolog logger carrying use case context. Loggers are
// immutable: every With method returns a child.
type Logger struct {
	zlog zerolog.Logger
}

type loggerContextKey struct{}

var timeFieldFormats = map[string]string{
	"unix":   zerolog.TimeFormatUnix,
	"unixms": zerolog.TimeFormatUnixMs,
}

// NewLogger opens cfg.Output and returns a logger writing to it.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	w, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	return NewLoggerWithWriter(cfg, w), nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %s: %w", output, err)
	}
	return f, nil
}

// NewLoggerWithWriter returns a logger writing to w.
func NewLoggerWithWriter(cfg LoggingConfig, w io.Writer) *Logger {
	timeFormat, ok := timeFieldFormats[cfg.TimeFormat]
	if !ok {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	zctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.EnableCaller {
		zctx = zctx.Caller()
	}
	return &Logger{zlog: zctx.Logger()}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a stderr logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zlog: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (l *Logger) str(key, value string) *Logger {
	return &Logger{zlog: l.zlog.With().Str(key, value).Logger()}
}

// NewComponentLogger returns a child logger tagged with component.
func (l *Logger) NewComponentLogger(component string) *Logger {
	return l.str(FieldComponent, component)
}

func (l *Logger) WithUseCaseID(id string) *Logger { return l.str(FieldUseCaseID, id) }
func (l *Logger) WithStackID(id string) *Logger   { return l.str(FieldStackID, id) }
func (l *Logger) WithOperation(op string) *Logger { return l.str(FieldOperation, op) }

// WithUseCase tags the logger with a use case id and type.
func (l *Logger) WithUseCase(id, useCaseType string) *Logger {
	return &Logger{zlog: l.zlog.With().
		Str(FieldUseCaseID, id).
		Str(FieldUseCaseType, useCaseType).
		Logger()}
}

// WithTrace tags the logger with the trace id of the span in ctx, if any.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	id := TraceID(ctx)
	if id == "" {
		return l
	}
	return l.str(FieldTraceID, id)
}

// WithField returns a child logger with one extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger with extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Fields(fields).Logger()}
}

// WithError attaches err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// Zerolog exposes the underlying logger for packages that take one.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }
