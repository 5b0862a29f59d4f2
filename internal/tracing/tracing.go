// Package tracing holds OpenTelemetry span helpers. Exporter and provider
// setup is left to the embedding process; without one the global no-op
// provider is used.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "github.com/jrsteele09/go-oauth-gateway"

// Span attribute keys.
const (
	AttrProvider  = "oauth.provider.token_url"
	AttrOperation = "oauth.operation"
	AttrOutcome   = "oauth.outcome"
)

// StartClientSpan starts a span for an outbound call to the identity provider.
// The caller is responsible for ending the span with defer span.End().
func StartClientSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(AttrOperation, operation))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "oauth."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrOutcome, "error"))
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetAttributes(attribute.String(AttrOutcome, "success"))
	span.SetStatus(codes.Ok, "")
}
