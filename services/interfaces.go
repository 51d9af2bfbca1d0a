package services

import (
	"context"

	"stonk-news/models"
)

// MarketDataProvider returns historical daily bars and descriptive metadata for a symbol.
// An unknown symbol yields an empty history rather than an error.
type MarketDataProvider interface {
	Name() string
	GetHistory(ctx context.Context, symbol string, period models.Period) (*models.PriceHistory, error)
}

// SearchRequest describes one news search
type SearchRequest struct {
	Query       string
	MaxResults  int
	SearchDepth string
}

// SearchProvider runs a web news search with a caller-supplied key
type SearchProvider interface {
	Search(ctx context.Context, apiKey string, req SearchRequest) ([]models.NewsResult, error)
}

// GenerationProvider produces free text for a prompt with a caller-supplied key.
// An empty string with a nil error means the model produced nothing.
type GenerationProvider interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// Compile-time interface verification
var _ MarketDataProvider = (*YahooService)(nil)
var _ MarketDataProvider = (*AlpacaService)(nil)
var _ SearchProvider = (*TavilyService)(nil)
var _ GenerationProvider = (*OpenAIService)(nil)
