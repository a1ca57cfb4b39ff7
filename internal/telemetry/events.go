package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var eventTracer = otel.Tracer("hackup")

// TraceVote opens a span for a vote mutation on a post or comment
func TraceVote(ctx context.Context, target, itemID, voteType, action string) (context.Context, trace.Span) {
	return eventTracer.Start(ctx, "engagement.vote",
		trace.WithAttributes(
			attribute.String("vote.target", target),
			attribute.String("vote.item_id", itemID),
			attribute.String("vote.type", voteType),
			attribute.String("vote.action", action),
		),
	)
}

// TraceLike opens a span for a like (bookmark) mutation
func TraceLike(ctx context.Context, target, itemID, action string) (context.Context, trace.Span) {
	return eventTracer.Start(ctx, "engagement.like",
		trace.WithAttributes(
			attribute.String("like.target", target),
			attribute.String("like.item_id", itemID),
			attribute.String("like.action", action),
		),
	)
}

// TraceKarma opens a span around a karma computation
func TraceKarma(ctx context.Context, mode string, userCount int) (context.Context, trace.Span) {
	return eventTracer.Start(ctx, "karma."+mode,
		trace.WithAttributes(
			attribute.Int("karma.user_count", userCount),
		),
	)
}

// TraceSearch opens a span for a post search
func TraceSearch(ctx context.Context, backend, query string, limit int) (context.Context, trace.Span) {
	return eventTracer.Start(ctx, "search.posts",
		trace.WithAttributes(
			attribute.String("search.backend", backend),
			attribute.Int("search.query_length", len(query)),
			attribute.Int("search.limit", limit),
		),
	)
}

// EndSpan records err (if any) and ends span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
