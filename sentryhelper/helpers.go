// Package sentryhelper provides utilities for Sentry transaction and scope management.
// It keeps breadcrumbs and context isolated per cache sync.
package sentryhelper

import (
	"context"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
)

// contextKey is used to store the cloned hub in context
type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartSyncTransaction creates a new transaction with a cloned hub for one
// cache sync. trigger says what started it (screen, http, cli).
// Returns the context with the transaction and hub, plus the transaction span.
func StartSyncTransaction(ctx context.Context, name string, trigger string) (context.Context, *sentry.Span) {
	// Clone the hub to isolate scope (breadcrumbs, tags)
	hub := HubFromContext(ctx).Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, fmt.Sprintf("sync.%s", name),
		sentry.WithOpName("sync"),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	transaction.SetTag("sync", name)
	transaction.SetTag("trigger", trigger)

	hub.Scope().SetSpan(transaction)

	return transaction.Context(), transaction
}

// HubFromContext retrieves the cloned hub from context.
// Falls back to CurrentHub if no cloned hub is found.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func AddBreadcrumb(ctx context.Context, breadcrumb *sentry.Breadcrumb) {
	HubFromContext(ctx).AddBreadcrumb(breadcrumb, nil)
}

// CaptureException captures an exception on the hub in context.
func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}

// DetachFromTransaction creates a new context that preserves the cloned hub
// but drops the caller's cancellation and transaction. Used for refreshes
// that must outlive the request or screen that triggered them.
func DetachFromTransaction(ctx context.Context) context.Context {
	return context.WithValue(context.Background(), hubContextKey, HubFromContext(ctx))
}
