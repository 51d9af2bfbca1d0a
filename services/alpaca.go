package services

import (
	"context"
	"fmt"
	"time"

	"stonk-news/models"
	"stonk-news/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// alpacaAssetClient is the subset of the Alpaca trading client used for symbol metadata
type alpacaAssetClient interface {
	GetAsset(symbol string) (*alpaca.Asset, error)
}

// alpacaBarsClient is the subset of the Alpaca market data client used for history
type alpacaBarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaService serves price history from Alpaca market data.
// Alpaca has no 52-week summary, so those values are always absent.
type AlpacaService struct {
	tradeClient alpacaAssetClient
	dataClient  alpacaBarsClient
	feed        marketdata.Feed
	now         func() time.Time
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret, baseURL string) *AlpacaService {
	tradeClient := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &AlpacaService{
		tradeClient: tradeClient,
		dataClient:  dataClient,
		feed:        marketdata.IEX,
		now:         time.Now,
	}
}

// Name identifies the provider in logs and health output
func (s *AlpacaService) Name() string { return BreakerAlpaca }

// GetHistory returns daily bars covering the period window ending now
func (s *AlpacaService) GetHistory(ctx context.Context, symbol string, period models.Period) (*models.PriceHistory, error) {
	ctx, span := observability.StartSpan(ctx, "alpaca.bars", attribute.String("symbol", symbol))
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlpaca, "bars")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (*models.PriceHistory, error) {
		end := s.now()
		bars, err := s.dataClient.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     period.Start(end),
			End:       end,
			Feed:      s.feed,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
		}

		history := &models.PriceHistory{
			Symbol: symbol,
			Period: period,
			Bars:   make([]models.Bar, 0, len(bars)),
		}
		for _, bar := range bars {
			history.Bars = append(history.Bars, models.Bar{
				Timestamp: bar.Timestamp,
				Open:      decimal.NewFromFloat(bar.Open),
				High:      decimal.NewFromFloat(bar.High),
				Low:       decimal.NewFromFloat(bar.Low),
				Close:     decimal.NewFromFloat(bar.Close),
			})
		}
		return history, nil
	})

	timer.ObserveExternalAPI(BreakerAlpaca, "bars")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlpaca, "bars", categorizeAPIError(err))
		observability.EndSpan(span, err)
		return nil, err
	}

	if !result.Empty() {
		result.Meta.LongName = s.assetName(ctx, symbol)
	}
	observability.EndSpan(span, nil)
	return result, nil
}

// assetName looks up the company name; failure only loses the display name
func (s *AlpacaService) assetName(ctx context.Context, symbol string) string {
	if ctx.Err() != nil {
		return ""
	}
	asset, err := s.tradeClient.GetAsset(symbol)
	if err != nil || asset == nil {
		observability.WithSymbol(symbol).Debug("alpaca asset lookup failed", "error", err)
		return ""
	}
	return asset.Name
}
