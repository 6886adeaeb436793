package middleware

import (
	"context"

	"github.com/sorbetero/sorbetero-backend/internal/subscriptions"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxVendorID     contextKey = "vendor_id"
	ctxSubscription contextKey = "subscription_status"
)

func UserIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(uint); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func VendorIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxVendorID).(uint); ok {
		return v
	}
	return 0
}

// SubscriptionFromContext returns the status a limit gate attached, or nil
// when the request did not pass through one.
func SubscriptionFromContext(ctx context.Context) *subscriptions.Status {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSubscription).(*subscriptions.Status); ok {
		return v
	}
	return nil
}

// WithVendorID injects the vendor identifier into the context.
func WithVendorID(ctx context.Context, vendorID uint) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxVendorID, vendorID)
}

// WithSubscription injects the resolved subscription status for downstream
// handlers.
func WithSubscription(ctx context.Context, status *subscriptions.Status) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSubscription, status)
}
