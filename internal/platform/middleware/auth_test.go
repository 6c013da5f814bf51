package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "modgate/internal/jwt_token"
	"modgate/internal/platform/middleware"
	"modgate/pkg/requestcontext"
)

func newAuthStack(t *testing.T) (*jwttoken.JWTService, http.Handler, *string) {
	t.Helper()

	svc := jwttoken.NewJWTService("test-key", "modgate", "modgate-api")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	var seenModerator string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenModerator = requestcontext.ModeratorID(r.Context()).String()
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireModerator(jwttoken.NewMiddlewareAdapter(svc), logger)(next)
	return svc, handler, &seenModerator
}

func TestRequireModerator(t *testing.T) {
	t.Run("valid token passes identity through", func(t *testing.T) {
		svc, handler, seen := newAuthStack(t)
		moderatorID := uuid.New()
		token, err := svc.GenerateAccessToken(moderatorID, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/resources/submission", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, moderatorID.String(), *seen)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		_, handler, _ := newAuthStack(t)
		req := httptest.NewRequest(http.MethodGet, "/resources/submission", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "unauthorized")
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		svc, handler, _ := newAuthStack(t)
		token, err := svc.GenerateAccessToken(uuid.New(), -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/resources/submission", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		other := jwttoken.NewJWTService("other-key", "modgate", "modgate-api")
		token, err := other.GenerateAccessToken(uuid.New(), time.Minute)
		require.NoError(t, err)

		_, handler, _ := newAuthStack(t)
		req := httptest.NewRequest(http.MethodGet, "/resources/submission", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
