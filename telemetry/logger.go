package telemetry

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(service string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for fetch and resolution operations

func (l *Logger) LogPageFetched(ctx context.Context, accountID string, page, pageResources, total, totalRows int) {
	l.WithContext(ctx).Info().
		Str("account_id", accountID).
		Int("page", page).
		Int("page_resources", pageResources).
		Int("accumulated", total).
		Int("total_rows", totalRows).
		Str("operation", "inventory_page").
		Msg("fetched inventory page")
}

func (l *Logger) LogInventoryComplete(ctx context.Context, accountID string, resources, pages, apiCalls int, elapsed time.Duration) {
	l.WithContext(ctx).Info().
		Str("account_id", accountID).
		Int("resources", resources).
		Int("pages", pages).
		Int("api_calls", apiCalls).
		Dur("elapsed", elapsed).
		Str("operation", "inventory_fetch").
		Msg("inventory fetch complete")
}

func (l *Logger) LogCacheHit(ctx context.Context, category, accountID string, resources int) {
	l.WithContext(ctx).Debug().
		Str("category", category).
		Str("account_id", accountID).
		Int("resources", resources).
		Msg("using cached data")
}

func (l *Logger) LogAccountSkipped(ctx context.Context, accountID string, err error) {
	l.WithContext(ctx).Warn().
		Str("account_id", accountID).
		Err(err).
		Msg("skipping account after failure")
}

func (l *Logger) LogResolution(ctx context.Context, arn string, source string, reason string) {
	event := l.WithContext(ctx).Debug().
		Str("arn", arn).
		Str("tag_source", source)
	if reason != "" {
		event = event.Str("fallback_reason", reason)
	}
	event.Msg("resolved resource tags")
}

func (l *Logger) LogRetry(ctx context.Context, operation string, attempt int, wait time.Duration, err error) {
	l.WithContext(ctx).Warn().
		Str("operation", operation).
		Int("attempt", attempt).
		Dur("wait", wait).
		Err(err).
		Msg("retrying after error")
}
