package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

const tracerName = "propertyhub"

// StartServiceSpan starts a span for a service operation, tagged with the
// ambient tenant and principal.
func StartServiceSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if id, ok := tenancy.FromContext(ctx); ok {
		if tid, ok := id.Tenant(); ok {
			attrs = append(attrs, attribute.Int64("tenant.id", tid))
		}
		if id.Authenticated() {
			attrs = append(attrs, attribute.String("user.id", id.UserID))
		}
		attrs = append(attrs, attribute.String("identity.source", string(id.Source)))
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartEventSpan starts a span for publishing or handling a message.
func StartEventSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "event "+subject,
		trace.WithAttributes(attribute.String("messaging.destination", subject)),
	)
}
