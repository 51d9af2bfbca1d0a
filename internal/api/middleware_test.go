package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stonk-news/observability"
)

func TestMetricsMiddleware(t *testing.T) {
	// Create a simple handler
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Wrap with metrics middleware
	wrapped := MetricsMiddleware(handler)

	// Create a chi router context (required for route pattern extraction)
	r := chi.NewRouter()
	r.Get("/api/test", func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r)
	})

	req := httptest.NewRequest("GET", "/api/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestMetricsMiddleware_Error(t *testing.T) {
	// Create a handler that returns an error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	})

	wrapped := MetricsMiddleware(handler)

	req := httptest.NewRequest("GET", "/api/error", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestMetricsMiddleware_POST(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "123"}`))
	})

	wrapped := MetricsMiddleware(handler)

	req := httptest.NewRequest("POST", "/api/analyze", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	observability.SetMetrics(metrics)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Post("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/analyze", nil))
	}

	got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/analyze", "400"))
	if got != 2 {
		t.Errorf("expected 2 recorded requests, got %v", got)
	}
}

func TestMetricsMiddleware_UnmatchedPathsShareOneLabel(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	observability.SetMetrics(metrics)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/wp-login.php", "/.env", "/random-3f9a1c", "/admin/config.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")); got != 4 {
		t.Errorf("expected 4 unmatched requests, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")); got != 1 {
		t.Errorf("implicit 200 should be recorded, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.HTTPRequestsTotal); got != 2 {
		t.Errorf("expected 2 series, got %d", got)
	}
}
