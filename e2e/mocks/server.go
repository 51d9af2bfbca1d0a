// Package mocks provides an HTTP mock server for the external APIs used in E2E tests.
package mocks

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const (
	yahooChartPrefix = "/v8/finance/chart/"
	tavilySearchPath = "/search"
	chatPath         = "/chat/completions"
)

// MockServer provides configurable mock responses for Yahoo Finance, Tavily and OpenAI.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	// Response configurations
	series   map[string]ChartSeries
	news     []SearchResult
	analysis string

	// Error injection
	chartStatus    int
	searchFailures map[string]int // query substring -> status
	chatStatus     int

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Body   string
}

// NewMockServer creates a new mock server with default responses.
func NewMockServer() *MockServer {
	m := &MockServer{
		series:         make(map[string]ChartSeries),
		searchFailures: make(map[string]int),
		requestLog:     make([]RequestLog, 0),
	}
	m.setDefaults()
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// ServeHTTP implements http.Handler to route requests to appropriate mock handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   string(body),
	})
	m.mu.Unlock()

	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, yahooChartPrefix) && r.Method == http.MethodGet:
		m.handleChart(w, r)
	case path == tavilySearchPath && r.Method == http.MethodPost:
		m.handleSearch(w, r)
	case path == chatPath && r.Method == http.MethodPost:
		m.handleChat(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// RequestsTo returns the logged requests whose path starts with prefix.
func (m *MockServer) RequestsTo(prefix string) []RequestLog {
	var out []RequestLog
	for _, req := range m.GetRequestLog() {
		if strings.HasPrefix(req.Path, prefix) {
			out = append(out, req)
		}
	}
	return out
}

// SearchRequests decodes every Tavily request received so far.
func (m *MockServer) SearchRequests() []SearchRequest {
	var out []SearchRequest
	for _, req := range m.RequestsTo(tavilySearchPath) {
		var sr SearchRequest
		if err := json.Unmarshal([]byte(req.Body), &sr); err == nil {
			out = append(out, sr)
		}
	}
	return out
}

// ChatRequests decodes every chat completion request received so far.
func (m *MockServer) ChatRequests() []ChatRequest {
	var out []ChatRequest
	for _, req := range m.RequestsTo(chatPath) {
		var cr ChatRequest
		if err := json.Unmarshal([]byte(req.Body), &cr); err == nil {
			out = append(out, cr)
		}
	}
	return out
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = make([]RequestLog, 0)
}

// SetSeries configures the chart served for a symbol.
func (m *MockServer) SetSeries(symbol string, s ChartSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[strings.ToUpper(symbol)] = s
}

// SetChartStatus makes every chart request fail with the given status. Zero restores normal responses.
func (m *MockServer) SetChartStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chartStatus = status
}

// SetNews configures the search results.
func (m *MockServer) SetNews(results []SearchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.news = results
}

// FailSearch makes searches whose query contains substr fail with status.
func (m *MockServer) FailSearch(substr string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchFailures[substr] = status
}

// SetAnalysis configures the completion text. An empty string yields a completion with no content.
func (m *MockServer) SetAnalysis(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analysis = text
}

// SetChatStatus makes chat completions fail with the given status. Zero restores normal responses.
func (m *MockServer) SetChatStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatStatus = status
}

func (m *MockServer) setDefaults() {
	high, low := 260.10, 164.08
	m.series["AAPL"] = ChartSeries{
		LongName:         "Apple Inc.",
		FiftyTwoWeekHigh: &high,
		FiftyTwoWeekLow:  &low,
		Closes:           []float64{100, 104.5, 102, 110},
	}
	m.series["MSFT"] = ChartSeries{
		LongName: "Microsoft Corporation",
		Closes:   []float64{110, 105, 100},
	}

	m.news = []SearchResult{
		{Title: "Earnings beat expectations", URL: "https://news.example.com/earnings", Content: "Revenue grew <b>12%</b> year over year on strong services demand.", Score: 0.91},
		{Title: "New product launch", URL: "https://news.example.com/launch", Content: "The company unveiled its next generation of devices.", Score: 0.84},
	}

	m.analysis = "Technical outlook is constructive and news sentiment is positive.\n\nOverall recommendation: BULLISH."
}

func (m *MockServer) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimPrefix(r.URL.Path, yahooChartPrefix))

	m.mu.RLock()
	status := m.chartStatus
	s, ok := m.series[symbol]
	m.mu.RUnlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(yahooChartResponse{Chart: yahooChart{
			Error: &yahooError{Code: "Not Found", Description: "No data found, symbol may be delisted"},
		}})
		return
	}

	json.NewEncoder(w).Encode(yahooChartResponse{Chart: yahooChart{
		Result: []yahooChartResult{buildChartResult(symbol, s)},
	}})
}

func buildChartResult(symbol string, s ChartSeries) yahooChartResult {
	start := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC)
	result := yahooChartResult{
		Meta: yahooMeta{
			Symbol:           symbol,
			LongName:         s.LongName,
			FiftyTwoWeekHigh: s.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:  s.FiftyTwoWeekLow,
		},
	}
	quote := yahooQuote{}
	for i, c := range s.Closes {
		result.Timestamp = append(result.Timestamp, start.AddDate(0, 0, i).Unix())
		quote.Open = append(quote.Open, c)
		quote.High = append(quote.High, c+1)
		quote.Low = append(quote.Low, c-1)
		quote.Close = append(quote.Close, c)
	}
	result.Indicators.Quote = []yahooQuote{quote}
	return result
}

func (m *MockServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if req.APIKey == "" {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":{"error":"Unauthorized: missing or invalid API key."}}`)
		return
	}

	m.mu.RLock()
	results := m.news
	failStatus := 0
	for substr, status := range m.searchFailures {
		if strings.Contains(req.Query, substr) {
			failStatus = status
		}
	}
	m.mu.RUnlock()

	if failStatus != 0 {
		w.WriteHeader(failStatus)
		io.WriteString(w, `{"detail":{"error":"search backend unavailable"}}`)
		return
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	json.NewEncoder(w).Encode(searchResponse{Query: req.Query, Results: results})
}

func (m *MockServer) handleChat(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	status := m.chatStatus
	text := m.analysis
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		status = http.StatusUnauthorized
	}
	if status != 0 {
		var resp openAIError
		resp.Error.Message = http.StatusText(status)
		resp.Error.Type = "server_error"
		resp.Error.Code = "mock_error"
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
		return
	}

	json.NewEncoder(w).Encode(chatCompletion{
		ID:      "chatcmpl-mock",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   "gpt-5-mini",
		Choices: []chatChoice{{
			Index:        0,
			FinishReason: "stop",
			Message:      chatMessage{Role: "assistant", Content: text},
		}},
	})
}
