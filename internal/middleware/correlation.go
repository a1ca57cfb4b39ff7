package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const correlationKey = "correlation_id"

// CorrelationMiddleware propagates X-Correlation-ID, defaulting to the request ID.
// The ID is put in OTel baggage so work spawned from the request keeps it.
// Must run after RequestIDMiddleware.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = RequestID(c)
		}
		if correlationID == "" {
			c.Next()
			return
		}

		c.Set(correlationKey, correlationID)
		c.Header("X-Correlation-ID", correlationID)

		ctx := c.Request.Context()
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
		}
		c.Request = c.Request.WithContext(withBaggage(ctx, correlationKey, correlationID))

		c.Next()
	}
}

func withBaggage(ctx context.Context, key, value string) context.Context {
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

// CorrelationIDFromContext reads the correlation ID back out of baggage
func CorrelationIDFromContext(ctx context.Context) string {
	return baggage.FromContext(ctx).Member(correlationKey).Value()
}

// SpanEnrichmentMiddleware sets the server span status from the final HTTP status.
// 404s are left unset so missing resources do not read as failures.
func SpanEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			span.SetStatus(codes.Error, "server error")
		case status == 404:
		case status >= 400:
			span.SetStatus(codes.Error, "client error")
		default:
			span.SetStatus(codes.Ok, "")
		}

		if size := c.Writer.Size(); size > 0 {
			span.SetAttributes(attribute.Int("http.response.size_bytes", size))
		}
	}
}
