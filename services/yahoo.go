package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"stonk-news/models"
	"stonk-news/observability"
)

// YahooService fetches daily price history from the Yahoo Finance chart API
type YahooService struct {
	client *resty.Client
}

// NewYahooService creates a new YahooService instance
func NewYahooService(baseURL string, timeout time.Duration) *YahooService {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	client.SetHeader("Accept", "application/json")

	return &YahooService{client: client}
}

// Name identifies the provider in logs and health output
func (s *YahooService) Name() string { return BreakerYahoo }

// yahooChart is the response structure from the Yahoo Finance chart API
type yahooChart struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol           string   `json:"symbol"`
		LongName         string   `json:"longName"`
		ShortName        string   `json:"shortName"`
		FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  *float64 `json:"fiftyTwoWeekLow"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open  []*float64 `json:"open"`
			High  []*float64 `json:"high"`
			Low   []*float64 `json:"low"`
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

const yahooNotFound = "Not Found"

// GetHistory returns daily bars over the period. Unknown symbols return an empty history.
func (s *YahooService) GetHistory(ctx context.Context, symbol string, period models.Period) (*models.PriceHistory, error) {
	ctx, span := observability.StartSpan(ctx, "yahoo.chart", attribute.String("symbol", symbol))
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerYahoo, "chart")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (*models.PriceHistory, error) {
		var chart yahooChart
		resp, err := s.client.R().
			SetContext(ctx).
			SetPathParam("symbol", symbol).
			SetQueryParams(map[string]string{
				"range":    string(period),
				"interval": "1d",
			}).
			SetResult(&chart).
			SetError(&chart).
			Get("/v8/finance/chart/{symbol}")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
		}

		if chart.Chart.Error != nil && chart.Chart.Error.Code == yahooNotFound {
			return emptyHistory(symbol, period), nil
		}
		if resp.IsError() {
			return nil, newAPIError(BreakerYahoo, resp.StatusCode(), resp.String())
		}
		if chart.Chart.Error != nil {
			return nil, fmt.Errorf("yahoo api error for %s: %s", symbol, chart.Chart.Error.Description)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, newAPIError(BreakerYahoo, resp.StatusCode(), resp.String())
		}

		return convertChart(symbol, period, chart), nil
	})

	timer.ObserveExternalAPI(BreakerYahoo, "chart")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerYahoo, "chart", categorizeAPIError(err))
	}
	observability.EndSpan(span, err)
	return result, err
}

func emptyHistory(symbol string, period models.Period) *models.PriceHistory {
	return &models.PriceHistory{Symbol: symbol, Period: period}
}

func convertChart(symbol string, period models.Period, chart yahooChart) *models.PriceHistory {
	history := emptyHistory(symbol, period)
	if len(chart.Chart.Result) == 0 {
		return history
	}

	result := chart.Chart.Result[0]
	history.Meta = models.TickerMeta{
		LongName:         strings.TrimSpace(result.Meta.LongName),
		FiftyTwoWeekHigh: nullDecimal(result.Meta.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:  nullDecimal(result.Meta.FiftyTwoWeekLow),
	}
	if len(result.Indicators.Quote) == 0 {
		return history
	}

	quote := result.Indicators.Quote[0]
	history.Bars = make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // null bars (halts, holidays)
		}
		history.Bars = append(history.Bars, models.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      decimal.NewFromFloat(*o),
			High:      decimal.NewFromFloat(*h),
			Low:       decimal.NewFromFloat(*l),
			Close:     decimal.NewFromFloat(*c),
		})
	}

	return history
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}
