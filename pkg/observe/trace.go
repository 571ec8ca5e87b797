package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for refetch instrumentation.
const defaultTracerName = "refetch"

// TraceConfig configures Traced producers.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "refetch").
	TracerName string

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TraceOption configures Traced.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TraceOption {
	return func(c *TraceConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Traced wraps a producer so that every invocation runs inside an
// OpenTelemetry span named spanName. The span context flows into the
// producer through its context argument, and errors are recorded on the
// span.
//
// The tracer comes from the global tracer provider; configure that in
// main() before starting work.
func Traced[T any](spanName string, fetcher func(context.Context) (T, error), opts ...TraceOption) func(context.Context) (T, error) {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(ctx context.Context) (T, error) {
		spanCtx, span := config.tracer.Start(
			ctx,
			spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(config.Attributes...),
		)
		defer span.End()

		result, err := fetcher(spanCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return result, err
	}
}

// TracedKeyed is the keyed-producer variant of Traced. The key is recorded
// as a span attribute via its Stringer or fmt representation only when
// recordKey is true, so sensitive keys stay out of traces by default.
func TracedKeyed[K comparable, T any](spanName string, fetcher func(context.Context, K) (T, error), recordKey bool, opts ...TraceOption) func(context.Context, K) (T, error) {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(ctx context.Context, key K) (T, error) {
		attrs := config.Attributes
		if recordKey {
			attrs = append(attrs, attribute.String("refetch.key", keyString(key)))
		}

		spanCtx, span := config.tracer.Start(
			ctx,
			spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		result, err := fetcher(spanCtx, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return result, err
	}
}
