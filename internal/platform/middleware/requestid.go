package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"modgate/pkg/requestcontext"
)

// RequestID tags every request with a correlation ID and pins the request
// time so all timestamps produced within one request agree. An inbound
// X-Request-ID is trusted from the edge proxy; otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, timeNow())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
