// Package e2e provides end-to-end testing infrastructure for stonk-news.
// The real services talk HTTP to a local mock of Yahoo Finance, Tavily and OpenAI.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stonk-news/config"
	"stonk-news/dashboard"
	"stonk-news/e2e/mocks"
	"stonk-news/internal/api"
	"stonk-news/internal/app"
	"stonk-news/internal/session"
	"stonk-news/models"
	"stonk-news/observability"
	"stonk-news/services"
)

const (
	// SearchKey and GenerationKey seed every new session
	SearchKey     = "tvly-e2e-test-key"
	GenerationKey = "sk-e2e-test-key"
)

// TestHarness provides the infrastructure for running E2E tests.
type TestHarness struct {
	t          *testing.T
	mockServer *mocks.MockServer
	store      *session.Store
	metrics    *observability.Metrics
	router     http.Handler
	config     *config.Config
	cookie     *http.Cookie
}

// NewTestHarness creates a new test harness.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()
	return &TestHarness{t: t}
}

// Setup starts the mock server and wires the real services, session store and router against it.
func (h *TestHarness) Setup() error {
	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig()

	h.metrics = observability.NewMetrics(prometheus.NewRegistry())
	observability.SetMetrics(h.metrics)
	services.SetGlobalRegistry(nil)

	timeout := time.Duration(h.config.MarketData.TimeoutSeconds) * time.Second
	market := services.NewYahooService(h.config.MarketData.YahooBaseURL, timeout)
	search := services.NewTavilyService(h.config.Tavily.BaseURL, timeout)
	generation := services.NewOpenAIService(h.config)

	h.store = session.NewStore(models.Credentials{
		SearchKey:     h.config.Tavily.APIKey,
		GenerationKey: h.config.OpenAI.APIKey,
	}, time.Hour)

	analyzer := dashboard.NewAnalyzer(market, search, generation, dashboard.Options{
		MaxResults:  h.config.Tavily.MaxResults,
		SearchDepth: h.config.Tavily.SearchDepth,
	})
	application := app.New(h.config, h.store, analyzer)

	handler := api.NewHandler(application, h.config)
	h.router = api.NewRouter(handler, h.config)

	return nil
}

// Teardown cleans up all test resources.
func (h *TestHarness) Teardown() {
	if h.mockServer != nil {
		h.mockServer.Close()
	}
	services.SetGlobalRegistry(nil)
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// Sessions returns the session store.
func (h *TestHarness) Sessions() *session.Store {
	return h.store
}

// Metrics returns the metrics instance recording this harness's traffic.
func (h *TestHarness) Metrics() *observability.Metrics {
	return h.metrics
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request within the harness's browser session and returns the response.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return h.serve(req)
}

// SubmitForm posts the dashboard form within the harness's browser session.
func (h *TestHarness) SubmitForm(values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.serve(req)
}

// SubmitHTMXForm posts the dashboard form the way htmx does.
func (h *TestHarness) SubmitHTMXForm(values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return h.serve(req)
}

// Analyze submits tickers with action=analyze.
func (h *TestHarness) Analyze(tickers string) *httptest.ResponseRecorder {
	return h.SubmitForm(url.Values{"tickers": {tickers}, "action": {"analyze"}})
}

// serve keeps the session cookie between requests like a browser would
func (h *TestHarness) serve(req *http.Request) *httptest.ResponseRecorder {
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req.WithContext(context.Background()))

	for _, c := range w.Result().Cookies() {
		if c.Name == api.SessionCookie {
			h.cookie = c
		}
	}
	return w
}

func (h *TestHarness) createTestConfig() *config.Config {
	mockURL := h.mockServer.URL()

	cfg := config.NewTestConfig()
	cfg.MarketData.YahooBaseURL = mockURL
	cfg.MarketData.TimeoutSeconds = 5
	cfg.Tavily.BaseURL = mockURL
	cfg.Tavily.APIKey = SearchKey
	cfg.OpenAI.BaseURL = mockURL
	cfg.OpenAI.APIKey = GenerationKey

	return cfg
}
