package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stonk-news/models"
	"stonk-news/services"
)

// mockMarket implements services.MarketDataProvider for testing
type mockMarket struct {
	mu       sync.Mutex
	calls    []string
	historyF func(symbol string, period models.Period) (*models.PriceHistory, error)
}

func (m *mockMarket) Name() string { return "mock" }

func (m *mockMarket) GetHistory(ctx context.Context, symbol string, period models.Period) (*models.PriceHistory, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()
	return m.historyF(symbol, period)
}

// mockSearch implements services.SearchProvider for testing
type mockSearch struct {
	mu       sync.Mutex
	requests []services.SearchRequest
	keys     []string
	searchF  func(req services.SearchRequest) ([]models.NewsResult, error)
}

func (m *mockSearch) Search(ctx context.Context, apiKey string, req services.SearchRequest) ([]models.NewsResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.keys = append(m.keys, apiKey)
	m.mu.Unlock()
	return m.searchF(req)
}

func (m *mockSearch) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockGeneration implements services.GenerationProvider for testing
type mockGeneration struct {
	mu        sync.Mutex
	prompts   []string
	generateF func(prompt string) (string, error)
}

func (m *mockGeneration) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.generateF(prompt)
}

func (m *mockGeneration) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func closes(symbol string, values ...float64) *models.PriceHistory {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	history := &models.PriceHistory{Symbol: symbol, Period: models.Period1Month}
	for i, v := range values {
		d := decimal.NewFromFloat(v)
		history.Bars = append(history.Bars, models.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      d,
			High:      d.Add(decimal.NewFromInt(1)),
			Low:       d.Sub(decimal.NewFromInt(1)),
			Close:     d,
		})
	}
	return history
}

func withName(h *models.PriceHistory, name string) *models.PriceHistory {
	h.Meta.LongName = name
	return h
}

func sampleNews() []models.NewsResult {
	return []models.NewsResult{
		{Title: "Beat estimates", URL: "https://example.com/1", Snippet: "Revenue grew."},
		{Title: "New product", URL: "https://example.com/2", Snippet: "Launch went well."},
	}
}
