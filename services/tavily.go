package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"stonk-news/models"
	"stonk-news/observability"
)

// ErrMissingAPIKey is returned when a provider is called without a key
var ErrMissingAPIKey = errors.New("API key is required")

// TavilyService runs news searches against the Tavily search API
type TavilyService struct {
	client *resty.Client
}

// NewTavilyService creates a new TavilyService instance
func NewTavilyService(baseURL string, timeout time.Duration) *TavilyService {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &TavilyService{client: client}
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs one query and returns results in provider relevance order
func (s *TavilyService) Search(ctx context.Context, apiKey string, req SearchRequest) ([]models.NewsResult, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}

	ctx, span := observability.StartSpan(ctx, "tavily.search", attribute.String("query", req.Query))
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerTavily, "search")
	timer := metrics.NewTimer()

	results, err := WithCircuitBreaker(ctx, BreakerTavily, func() ([]models.NewsResult, error) {
		var body tavilyResponse
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(tavilyRequest{
				APIKey:      apiKey,
				Query:       req.Query,
				MaxResults:  req.MaxResults,
				SearchDepth: req.SearchDepth,
			}).
			SetResult(&body).
			Post("/search")
		if err != nil {
			return nil, fmt.Errorf("failed to search news: %w", err)
		}
		if resp.IsError() {
			return nil, newAPIError(BreakerTavily, resp.StatusCode(), resp.String())
		}

		results := make([]models.NewsResult, 0, len(body.Results))
		for _, r := range body.Results {
			results = append(results, models.NewsResult{
				Title:   strings.TrimSpace(r.Title),
				URL:     r.URL,
				Snippet: plainText(r.Content),
			})
		}
		return results, nil
	})

	timer.ObserveExternalAPI(BreakerTavily, "search")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerTavily, "search", categorizeAPIError(err))
	}
	observability.EndSpan(span, err)
	return results, err
}

var (
	tagPattern    = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)
	entityPattern = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)
)

// plainText strips markup that search snippets sometimes carry and decodes entities.
// A bare "<" or "&" in prose is left alone.
func plainText(s string) string {
	switch {
	case tagPattern.MatchString(s):
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err != nil {
			return strings.TrimSpace(s)
		}
		return strings.TrimSpace(doc.Text())
	case entityPattern.MatchString(s):
		return strings.TrimSpace(html.UnescapeString(s))
	default:
		return strings.TrimSpace(s)
	}
}
