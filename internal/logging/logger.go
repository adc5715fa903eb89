package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var logger = zerolog.Nop()

// Init configures the process logger. Development gets a colored console
// writer with caller info at debug level; everything else logs JSON at info.
func Init(service string, isDevelopment bool) {
	var out io.Writer = os.Stdout
	if isDevelopment {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	logger = New(out, service, isDevelopment)
}

func New(w io.Writer, service string, isDevelopment bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	ctx := zerolog.New(w).With().Timestamp().Str("service", service)
	if isDevelopment {
		return ctx.Caller().Logger().Level(zerolog.DebugLevel)
	}
	return ctx.Logger().Level(zerolog.InfoLevel)
}

// SetLogger replaces the process logger; tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	logger = l
}

func Logger() *zerolog.Logger {
	return &logger
}

func WithContext(ctx context.Context) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}

	return logger.With().
		Str("traceId", sc.TraceID().String()).
		Str("spanId", sc.SpanID().String()).
		Logger()
}

func Info(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Info()
}

func Error(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Error()
}

func Debug(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Debug()
}

func Warn(ctx context.Context) *zerolog.Event {
	l := WithContext(ctx)
	return l.Warn()
}
