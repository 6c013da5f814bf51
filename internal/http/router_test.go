package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"modgate/pkg/testutil"
)

type stubRegistrar struct {
	path string
}

func (s stubRegistrar) Register(r chi.Router) {
	r.Get(s.path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func passThrough(next http.Handler) http.Handler { return next }

func TestRouter(t *testing.T) {
	testutil.Given(t, "a router with stub handlers", func(t *testing.T) {
		router := NewRouter(
			stubRegistrar{path: "/resources/submission"},
			stubRegistrar{path: "/tasks"},
			passThrough,
			nil,
		)

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it responds without authentication", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
				testutil.AssertJSONContains(t, rec, "status", "ok")
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it responds without authentication", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
			})
		})

		testutil.When(t, "calling a registered module route", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/tasks", nil))

			testutil.Then(t, "the registrar's handler serves it", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
			})
		})
	})

	testutil.Given(t, "a router whose auth middleware rejects everything", func(t *testing.T) {
		router := NewRouter(
			stubRegistrar{path: "/resources/submission"},
			stubRegistrar{path: "/tasks"},
			denyAll,
			nil,
		)

		testutil.When(t, "calling a module route", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/resources/submission", nil))

			testutil.Then(t, "the request never reaches the handler", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusUnauthorized)
			})
		})

		testutil.When(t, "calling /healthz", func(t *testing.T) {
			rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it stays public", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
			})
		})
	})
}
