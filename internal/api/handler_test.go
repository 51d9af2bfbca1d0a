package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"stonk-news/config"
	"stonk-news/dashboard"
	"stonk-news/internal/app"
	"stonk-news/internal/session"
	"stonk-news/models"
	"stonk-news/observability"
	"stonk-news/services"
)

// fakeAnalyzer returns a canned section per ticker: UNKNOWN fails, anything else succeeds
type fakeAnalyzer struct {
	requests []dashboard.RunRequest
}

func (f *fakeAnalyzer) Run(ctx context.Context, req dashboard.RunRequest) *dashboard.Report {
	f.requests = append(f.requests, req)
	report := &dashboard.Report{Period: req.Period, StartedAt: time.Now()}
	for _, ticker := range req.Tickers {
		if ticker == "UNKNOWN" {
			report.Sections = append(report.Sections, dashboard.TickerSection{
				Ticker:  ticker,
				Failure: &dashboard.StepError{Kind: dashboard.KindNotFound, Ticker: ticker},
			})
			continue
		}
		history := &models.PriceHistory{Symbol: ticker, Period: req.Period, Bars: []models.Bar{
			{Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Open: decimal.NewFromInt(100), High: decimal.NewFromInt(101), Low: decimal.NewFromInt(99), Close: decimal.NewFromInt(100)},
			{Timestamp: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Open: decimal.NewFromInt(110), High: decimal.NewFromInt(111), Low: decimal.NewFromInt(109), Close: decimal.NewFromInt(110)},
		}}
		report.Sections = append(report.Sections, dashboard.TickerSection{
			Ticker:  ticker,
			History: history,
			Stats:   history.Stats(),
			News:    dashboard.NewsSection{State: dashboard.SectionPlaceholder, Message: "Add Tavily API key for news search"},
		})
	}
	return report
}

type testEnv struct {
	router   http.Handler
	store    *session.Store
	analyzer *fakeAnalyzer
}

func newTestEnv(seed models.Credentials) *testEnv {
	observability.SetMetrics(observability.NewMetrics(prometheus.NewRegistry()))
	services.SetGlobalRegistry(nil)

	cfg := config.NewTestConfig()
	store := session.NewStore(seed, time.Hour)
	analyzer := &fakeAnalyzer{}
	handler := NewHandler(app.New(cfg, store, analyzer), cfg)
	return &testEnv{router: NewRouter(handler, cfg), store: store, analyzer: analyzer}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func formRequest(values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestHandler_Index(t *testing.T) {
	t.Run("renders the page and issues a session cookie", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
			t.Errorf("expected Content-Type text/html, got %s", ct)
		}
		if !strings.Contains(w.Body.String(), "📈 Stonk News") {
			t.Error("expected body to contain the title")
		}
		cookie := sessionCookieFrom(t, w)
		if !cookie.HttpOnly || cookie.Path != "/" {
			t.Errorf("unexpected cookie attributes: %+v", cookie)
		}
		if env.store.Len() != 1 {
			t.Errorf("expected one session, got %d", env.store.Len())
		}
	})

	t.Run("reuses an existing session", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})
		cookie := sessionCookieFrom(t, env.do(httptest.NewRequest(http.MethodGet, "/", nil)))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		w := env.do(req)

		if len(w.Result().Cookies()) != 0 {
			t.Error("existing session should not get a new cookie")
		}
		if env.store.Len() != 1 {
			t.Errorf("expected one session, got %d", env.store.Len())
		}
	})

	t.Run("seeds keys from the environment", func(t *testing.T) {
		env := newTestEnv(models.Credentials{SearchKey: "tvly-1234567890"})

		w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(w.Body.String(), "Set: tvl...7890") {
			t.Error("expected the seeded key to show as set")
		}
	})
}

func TestHandler_Submit(t *testing.T) {
	t.Run("analyze renders one section per ticker", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		w := env.do(formRequest(url.Values{
			"tickers": {"aapl, unknown"},
			"period":  {"3mo"},
			"action":  {"analyze"},
		}, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if len(env.analyzer.requests) != 1 {
			t.Fatalf("expected one run, got %d", len(env.analyzer.requests))
		}
		if env.analyzer.requests[0].Period != models.Period3Months {
			t.Errorf("period = %s", env.analyzer.requests[0].Period)
		}
		body := w.Body.String()
		for _, want := range []string{"📊 AAPL", "10.00%", "No data found for UNKNOWN", "<!doctype html>"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
	})

	t.Run("htmx requests get the results fragment", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})
		req := formRequest(url.Values{"tickers": {"MSFT"}, "action": {"analyze"}}, nil)
		req.Header.Set("HX-Request", "true")

		w := env.do(req)

		body := w.Body.String()
		if strings.Contains(body, "<!doctype html>") {
			t.Error("htmx response should not contain the full page")
		}
		if !strings.HasPrefix(body, `<div id="results">`) || !strings.Contains(body, "📊 MSFT") {
			t.Errorf("unexpected fragment: %s", body)
		}
	})

	t.Run("settings change does not analyze", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		w := env.do(formRequest(url.Values{
			"tickers":    {"AAPL"},
			"tavily_key": {"tvly-abcdefghijk"},
			"action":     {"update"},
		}, nil))

		if len(env.analyzer.requests) != 0 {
			t.Error("update should not run an analysis")
		}
		if !strings.Contains(w.Body.String(), "Set: tvl...hijk") {
			t.Error("expected the new key to be stored")
		}
	})

	t.Run("keys persist for the session", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})
		first := env.do(formRequest(url.Values{"openai_key": {"sk-user-key-1234"}, "action": {"update"}}, nil))
		cookie := sessionCookieFrom(t, first)

		env.do(formRequest(url.Values{"tickers": {"AAPL"}, "action": {"analyze"}}, cookie))

		if got := env.analyzer.requests[0].Credentials.GenerationKey; got != "sk-user-key-1234" {
			t.Errorf("generation key = %q", got)
		}
	})

	t.Run("empty tickers do not analyze", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		env.do(formRequest(url.Values{"tickers": {" , "}, "action": {"analyze"}}, nil))

		if len(env.analyzer.requests) != 0 {
			t.Error("blank input should not run an analysis")
		}
	})
}

func TestHandler_Analyze(t *testing.T) {
	t.Run("returns the report as JSON", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"tickers":"aapl, unknown","period":"1y"}`))
		req.Header.Set("Content-Type", "application/json")

		w := env.do(req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp AnalyzeResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Period != "1y" || len(resp.Tickers) != 2 {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if resp.Tickers[0].Ticker != "AAPL" || resp.Tickers[0].Error != "" {
			t.Errorf("first ticker = %+v", resp.Tickers[0])
		}
		if resp.Tickers[1].Error != "No data found for UNKNOWN" {
			t.Errorf("second ticker error = %q", resp.Tickers[1].Error)
		}
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		w := env.do(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{")))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("rejects empty tickers", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		w := env.do(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"tickers":" , "}`)))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
		if len(env.analyzer.requests) != 0 {
			t.Error("analyzer should not run")
		}
	})
}

func TestHandler_Health(t *testing.T) {
	t.Run("ok with no open breakers", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})

		w := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var resp map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["status"] != "ok" {
			t.Errorf("expected status ok, got %v", resp["status"])
		}
		if resp["market_data_provider"] != "yahoo" {
			t.Errorf("expected yahoo provider, got %v", resp["market_data_provider"])
		}
	})

	t.Run("degraded when a breaker is open", func(t *testing.T) {
		env := newTestEnv(models.Credentials{})
		registry := services.NewCircuitBreakerRegistry(services.CircuitBreakerConfig{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			MinRequests: 1,
		})
		services.SetGlobalRegistry(registry)
		defer services.SetGlobalRegistry(nil)

		_, _ = registry.Execute(context.Background(), services.BreakerTavily, func() (any, error) {
			return nil, errors.New("connection refused")
		})

		w := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var resp map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["status"] != "degraded" {
			t.Errorf("expected degraded status, got %v", resp["status"])
		}
	})
}

func TestHandler_NotFound(t *testing.T) {
	env := newTestEnv(models.Credentials{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(models.Credentials{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/analyze", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestHandler_CORSHeaders(t *testing.T) {
	env := newTestEnv(models.Credentials{})

	t.Run("api routes carry CORS headers", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8501" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("preflight is answered", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodOptions, "/api/analyze", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200 for OPTIONS, got %d", w.Code)
		}
	})
}
