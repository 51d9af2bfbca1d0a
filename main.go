package main

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stonk-news/config"
	"stonk-news/dashboard"
	"stonk-news/internal/api"
	"stonk-news/internal/app"
	"stonk-news/internal/session"
	"stonk-news/models"
	"stonk-news/observability"
	"stonk-news/services"
)

// version is overridden at build time with -ldflags
var version = "dev"

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Log.Level))
	observability.InitMetrics()
	if envErr != nil {
		observability.Debug("no .env file found, using environment variables")
	}

	shutdownTracing, err := observability.InitTracing(cfg.Tracing.Enabled, version)
	if err != nil {
		observability.Fatal("failed to initialize tracing", "error", err)
	}

	market, err := newMarketDataProvider(cfg)
	if err != nil {
		observability.Fatal("failed to initialize market data provider", "error", err)
	}
	search := services.NewTavilyService(cfg.Tavily.BaseURL, time.Duration(cfg.Tavily.TimeoutSeconds)*time.Second)
	generation := services.NewOpenAIService(cfg)

	if cfg.Tavily.APIKey == "" {
		observability.Warn("TAVILY_API_KEY not set, news search needs a key entered in the sidebar")
	}
	if cfg.OpenAI.APIKey == "" {
		observability.Warn("OPENAI_API_KEY not set, AI analysis needs a key entered in the sidebar")
	}

	// Sessions are seeded from the environment and swept when idle
	store := session.NewStore(models.Credentials{
		SearchKey:     cfg.Tavily.APIKey,
		GenerationKey: cfg.OpenAI.APIKey,
	}, time.Duration(cfg.Session.IdleTimeoutMinutes)*time.Minute)

	sweeper, err := session.NewSweeper(store, cfg.Session.SweepSchedule)
	if err != nil {
		observability.Fatal("failed to schedule session sweeper", "error", err)
	}
	sweeper.Start()

	analyzer := dashboard.NewAnalyzer(market, search, generation, dashboard.Options{
		MaxResults:  cfg.Tavily.MaxResults,
		SearchDepth: cfg.Tavily.SearchDepth,
	})
	application := app.New(cfg, store, analyzer)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	// No write timeout: an analysis run takes as long as its providers do.
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"version", version,
			"market_data_provider", market.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}
	sweeper.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		observability.Error("failed to flush traces", "error", err)
	}
	observability.Info("server stopped")
}

func newMarketDataProvider(cfg *config.Config) (services.MarketDataProvider, error) {
	timeout := time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second
	switch cfg.MarketData.Provider {
	case config.ProviderAlpaca:
		return services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL), nil
	case config.ProviderYahoo:
		return services.NewYahooService(cfg.MarketData.YahooBaseURL, timeout), nil
	default:
		return nil, errors.New("unknown market data provider: " + cfg.MarketData.Provider)
	}
}
