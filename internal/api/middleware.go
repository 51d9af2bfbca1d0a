package api

import (
	"net/http"
	"strconv"
	"time"

	"stonk-news/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests that hit no registered route, so scanners cannot grow the path label
const unmatchedRoute = "unmatched"

// MetricsMiddleware records HTTP metrics per route pattern
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = unmatchedRoute
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		observability.GetMetrics().RecordHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start), ww.BytesWritten())
	})
}
