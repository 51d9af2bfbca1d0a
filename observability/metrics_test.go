package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if m.AnalysisRunsTotal == nil || m.TickersTotal == nil || m.StepDuration == nil {
		t.Error("analysis metrics should be initialized")
	}
	if m.ExternalAPIRequestsTotal == nil || m.ExternalAPIErrorsTotal == nil || m.ExternalAPIDuration == nil {
		t.Error("external API metrics should be initialized")
	}
	if m.HTTPRequestsTotal == nil || m.HTTPRequestDuration == nil || m.HTTPResponseSize == nil {
		t.Error("HTTP metrics should be initialized")
	}
	if m.CircuitBreakerState == nil || m.CircuitBreakerTrips == nil {
		t.Error("circuit breaker metrics should be initialized")
	}
	if m.ActiveSessions == nil {
		t.Error("ActiveSessions should be initialized")
	}
}

func TestRecordAnalysis(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAnalysisRun()
	m.RecordAnalysisRun()
	if got := testutil.ToFloat64(m.AnalysisRunsTotal); got != 2 {
		t.Errorf("runs = %f, want 2", got)
	}

	m.RecordTicker("ok")
	m.RecordTicker("not_found")
	m.RecordTicker("ok")
	if got := testutil.ToFloat64(m.TickersTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok tickers = %f, want 2", got)
	}

	m.RecordAnalysisError("search_error")
	m.RecordAnalysisError("search_error")
	if got := testutil.ToFloat64(m.AnalysisErrorsTotal.WithLabelValues("search_error")); got != 2 {
		t.Errorf("search errors = %f, want 2", got)
	}
	if got := testutil.CollectAndCount(m.AnalysisErrorsTotal); got != 1 {
		t.Errorf("analysis errors should carry one series per error type, got %d", got)
	}

	m.RecordVerdict("BULLISH")
	if got := testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("BULLISH")); got != 1 {
		t.Errorf("bullish verdicts = %f, want 1", got)
	}

	m.RecordStepDuration("price", "ok", 20*time.Millisecond)
}

func TestRecordExternalAPI(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordExternalAPIRequest("tavily", "search")
	m.RecordExternalAPIRequest("tavily", "search")
	m.RecordExternalAPIRequest("yahoo", "chart")

	if got := testutil.ToFloat64(m.ExternalAPIRequestsTotal.WithLabelValues("tavily", "search")); got != 2 {
		t.Errorf("tavily search = %f, want 2", got)
	}

	m.RecordExternalAPIError("openai", "generate", "auth_error")
	if got := testutil.ToFloat64(m.ExternalAPIErrorsTotal.WithLabelValues("openai", "generate", "auth_error")); got != 1 {
		t.Errorf("openai auth errors = %f, want 1", got)
	}

	m.RecordExternalAPIDuration("yahoo", "chart", 150*time.Millisecond)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET", "/", "200", 10*time.Millisecond, 2048)
	m.RecordHTTPRequest("POST", "/", "200", 3*time.Second, 65536)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")); got != 1 {
		t.Errorf("GET / 200 = %f, want 1", got)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetCircuitBreakerState("tavily", 2)
	if got := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("tavily")); got != 2 {
		t.Errorf("tavily state = %f, want 2", got)
	}

	m.RecordCircuitBreakerTrip("tavily")
	if got := testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("tavily")); got != 1 {
		t.Errorf("tavily trips = %f, want 1", got)
	}
}

func TestActiveSessions(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetActiveSessions(3)
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Errorf("active sessions = %f, want 3", got)
	}
}

func TestTimer(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	timer := m.NewTimer()
	time.Sleep(10 * time.Millisecond)

	if d := timer.Duration(); d < 10*time.Millisecond {
		t.Errorf("expected duration of at least 10ms, got %v", d)
	}

	timer.ObserveStep("news", "ok")
	timer.ObserveExternalAPI("tavily", "search")
}

func TestGetMetrics_Singleton(t *testing.T) {
	original := globalMetrics
	defer func() { globalMetrics = original }()

	SetMetrics(NewMetrics(prometheus.NewRegistry()))

	m1 := GetMetrics()
	m2 := GetMetrics()
	if m1 == nil || m1 != m2 {
		t.Error("GetMetrics should return the same instance")
	}
}
