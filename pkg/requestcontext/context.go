// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need without pulling
// in HTTP-related code.
//
// Usage in services (read values):
//
//	moderatorID := requestcontext.ModeratorID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithModeratorID(ctx, moderatorID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "modgate/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	moderatorIDKey struct{}
	ownerIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyModeratorID = moderatorIDKey{}
	ContextKeyOwnerID     = ownerIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
)

// WithModeratorID stores the authenticated moderator in the context.
func WithModeratorID(ctx context.Context, moderatorID id.ModeratorID) context.Context {
	return context.WithValue(ctx, ContextKeyModeratorID, moderatorID)
}

// ModeratorID returns the authenticated moderator, or the zero value when the
// request is unauthenticated.
func ModeratorID(ctx context.Context) id.ModeratorID {
	v, _ := ctx.Value(ContextKeyModeratorID).(id.ModeratorID)
	return v
}

// WithOwnerID stores the authenticated publisher in the context.
func WithOwnerID(ctx context.Context, ownerID id.OwnerID) context.Context {
	return context.WithValue(ctx, ContextKeyOwnerID, ownerID)
}

// OwnerID returns the authenticated publisher, or the zero value.
func OwnerID(ctx context.Context) id.OwnerID {
	v, _ := ctx.Value(ContextKeyOwnerID).(id.OwnerID)
	return v
}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRequestID).(string)
	return v
}

// WithTime pins the request time. Middleware sets this once per request so all
// timestamps within one request agree; tests use it to freeze the clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// Now returns the pinned request time, falling back to time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithClientMetadata stores client IP and User-Agent captured by middleware.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	return context.WithValue(ctx, ContextKeyUserAgent, userAgent)
}

// ClientIP returns the client IP address, or "" when absent.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyClientIP).(string)
	return v
}

// UserAgent returns the raw User-Agent header, or "" when absent.
func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyUserAgent).(string)
	return v
}
