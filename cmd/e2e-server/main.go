// Package main provides a standalone HTTP server for E2E testing.
// It runs the real routes, handlers and provider clients against a local mock
// of Yahoo Finance, Tavily and OpenAI, making it suitable for browser tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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

func main() {
	// Initialize logger in development mode for tests
	observability.InitLogger(false)
	observability.InitMetrics()

	port := os.Getenv("E2E_SERVER_PORT")
	if port == "" {
		port = "9090"
	}

	mockServer := mocks.NewMockServer()
	defer mockServer.Close()
	seedFixtures(mockServer)
	observability.Info("mock providers started", "url", mockServer.URL())

	cfg := config.NewTestConfig()
	cfg.HTTP.Addr = ":" + port
	cfg.MarketData.YahooBaseURL = mockServer.URL()
	cfg.Tavily.BaseURL = mockServer.URL()
	cfg.OpenAI.BaseURL = mockServer.URL()
	if os.Getenv("E2E_WITHOUT_KEYS") == "" {
		cfg.Tavily.APIKey = "tvly-e2e-server-key"
		cfg.OpenAI.APIKey = "sk-e2e-server-key"
	}

	timeout := time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second
	analyzer := dashboard.NewAnalyzer(
		services.NewYahooService(cfg.MarketData.YahooBaseURL, timeout),
		services.NewTavilyService(cfg.Tavily.BaseURL, timeout),
		services.NewOpenAIService(cfg),
		dashboard.Options{MaxResults: cfg.Tavily.MaxResults, SearchDepth: cfg.Tavily.SearchDepth},
	)

	store := session.NewStore(models.Credentials{
		SearchKey:     cfg.Tavily.APIKey,
		GenerationKey: cfg.OpenAI.APIKey,
	}, time.Hour)
	application := app.New(cfg, store, analyzer)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		observability.Info("starting E2E test server", "port", port, "url", fmt.Sprintf("http://localhost:%s", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down E2E test server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}
	observability.Info("E2E test server stopped")
}
