package providers

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eligibility/internal/cra/metrics"
)

var tracer = otel.Tracer("eligibility/cra/providers")

// Instrumentation is the per-source plumbing every fetcher carries.
type Instrumentation struct {
	Gate    Gate
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Log returns the configured logger or a discarding one.
func (in Instrumentation) Log() *slog.Logger {
	if in.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return in.Logger
}

// Run executes fn for source inside a span, behind the breaker gate, and
// records latency and breaker transitions.
func Run[T any](ctx context.Context, in Instrumentation, source SourceID, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "cra.source."+string(source),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cra.source", string(source))),
	)
	defer span.End()

	if err := in.Gate.Allow(source); err != nil {
		var zero T
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}

	start := time.Now()
	out, err := fn(ctx)
	in.Metrics.ObserveSource(string(source), err, time.Since(start))
	if change := in.Gate.Record(err); change.Opened || change.Closed {
		in.Metrics.SetBreakerOpen(string(source), change.Opened)
		in.Log().WarnContext(ctx, "source breaker state changed",
			"source", source,
			"open", change.Opened,
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// Degrade records a fail-soft outcome: a warning log and a failure count.
func Degrade(ctx context.Context, in Instrumentation, source SourceID, err error, msg string, attrs ...any) {
	category := GetCategory(err)
	in.Metrics.IncSourceFailure(string(source), string(category))
	args := append([]any{"source", source, "category", category, "error", err}, attrs...)
	in.Log().WarnContext(ctx, msg, args...)
}
