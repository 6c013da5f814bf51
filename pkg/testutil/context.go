package testutil

import (
	"net/http"
	"time"

	id "modgate/pkg/domain"
	"modgate/pkg/requestcontext"
)

// WithModerator adds a moderator ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the moderatorID is not a valid UUID, it will not be added to the context.
func WithModerator(req *http.Request, moderatorID string) *http.Request {
	if parsed, err := id.ParseModeratorID(moderatorID); err == nil {
		return req.WithContext(requestcontext.WithModeratorID(req.Context(), parsed))
	}
	return req
}

// WithOwner adds a publisher owner ID to the request context.
// Invalid IDs are silently ignored.
func WithOwner(req *http.Request, ownerID string) *http.Request {
	if parsed, err := id.ParseOwnerID(ownerID); err == nil {
		return req.WithContext(requestcontext.WithOwnerID(req.Context(), parsed))
	}
	return req
}

// WithRequestID adds a request correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithFrozenTime pins the request time so time-dependent assertions are exact.
func WithFrozenTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
