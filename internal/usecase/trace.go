package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("questrank/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

// startUsecaseSpan only opens child spans. Background work without a parent
// (scheduled jobs invoked in-process, tests) stays untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	if len(attrs) == 0 {
		return usecaseTracer.Start(ctx, name)
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func userAttr(userID string) attribute.KeyValue {
	return attribute.String("questrank.user_id", strings.TrimSpace(userID))
}

func scopeAttr(scope string) attribute.KeyValue {
	return attribute.String("questrank.scope", scope)
}
