package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/goreconcile/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareLabelsRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/banks/{bankID}/balance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"bank-1", "bank-2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/banks/"+id+"/balance", nil))
	}

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/banks/{bankID}/balance", "418")
	if got := testutil.ToFloat64(counter); got != 2 {
		t.Fatalf("expected both requests under one pattern, got %v", got)
	}
}

func TestMetricsMiddlewareUnmatchedRoute(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected unmatched request to be counted, got %v", got)
	}
}
