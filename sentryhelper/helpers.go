// Package sentryhelper isolates Sentry scope per player operation so that
// breadcrumbs from one catalog load do not leak into another.
package sentryhelper

import (
	"context"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
)

type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartOperationTransaction clones the current hub into ctx and starts a
// transaction named "player.<operation>" bound to it.
func StartOperationTransaction(ctx context.Context, operation string) (context.Context, *sentry.Span) {
	hub := sentry.CurrentHub().Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, fmt.Sprintf("player.%s", operation),
		sentry.WithOpName("player.operation"),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	transaction.SetTag("operation", operation)
	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// HubFromContext falls back to the current hub when ctx carries none.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func AddBreadcrumb(ctx context.Context, category, message string) {
	HubFromContext(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
	}, nil)
}

func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

// StartSpan starts a child span of the transaction in ctx.
func StartSpan(ctx context.Context, operation string) *sentry.Span {
	return sentry.StartSpan(ctx, operation)
}
