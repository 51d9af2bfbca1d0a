package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// HTTP server configuration
	HTTP HTTPConfig `yaml:"http"`

	// Market data provider configuration
	MarketData MarketDataConfig `yaml:"market_data"`
	Alpaca     AlpacaConfig     `yaml:"alpaca"`

	// News search configuration
	Tavily TavilyConfig `yaml:"tavily"`

	// Text generation configuration
	OpenAI OpenAIConfig `yaml:"openai"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Observability configuration
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string `yaml:"addr"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
}

// MarketDataConfig selects and configures the price history provider
type MarketDataConfig struct {
	Provider       string `yaml:"provider"` // yahoo or alpaca
	YahooBaseURL   string `yaml:"yahoo_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AlpacaConfig holds Alpaca API configuration
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// TavilyConfig holds Tavily search configuration.
// APIKey only seeds new sessions; users may override it per session.
type TavilyConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	MaxResults     int    `yaml:"max_results"`
	SearchDepth    string `yaml:"search_depth"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// OpenAIConfig holds OpenAI API configuration.
// APIKey only seeds new sessions; users may override it per session.
type OpenAIConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	ReasoningEffort     string `yaml:"reasoning_effort"`
	MaxCompletionTokens int    `yaml:"max_completion_tokens"`
}

// SessionConfig holds in-memory session settings
type SessionConfig struct {
	IdleTimeoutMinutes int    `yaml:"idle_timeout_minutes"`
	SweepSchedule      string `yaml:"sweep_schedule"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
)

// Load reads the optional YAML file named by CONFIG_FILE, then applies environment overrides
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:               ":8501",
			CORSAllowedOrigins: "http://localhost:8501",
		},
		MarketData: MarketDataConfig{
			Provider:       ProviderYahoo,
			YahooBaseURL:   "https://query1.finance.yahoo.com",
			TimeoutSeconds: 30,
		},
		Alpaca: AlpacaConfig{
			BaseURL: "https://paper-api.alpaca.markets",
		},
		Tavily: TavilyConfig{
			BaseURL:        "https://api.tavily.com",
			MaxResults:     5,
			SearchDepth:    "basic",
			TimeoutSeconds: 30,
		},
		OpenAI: OpenAIConfig{
			Model:               "gpt-5-mini",
			ReasoningEffort:     "medium",
			MaxCompletionTokens: 4000,
		},
		Session: SessionConfig{
			IdleTimeoutMinutes: 60,
			SweepSchedule:      "@every 5m",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnvString("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.CORSAllowedOrigins = getEnvString("CORS_ALLOWED_ORIGINS", c.HTTP.CORSAllowedOrigins)

	c.MarketData.Provider = strings.ToLower(getEnvString("MARKET_DATA_PROVIDER", c.MarketData.Provider))
	c.MarketData.YahooBaseURL = getEnvString("YAHOO_BASE_URL", c.MarketData.YahooBaseURL)
	c.MarketData.TimeoutSeconds = getEnvInt("MARKET_DATA_TIMEOUT_SECONDS", c.MarketData.TimeoutSeconds)

	c.Alpaca.APIKey = getEnvString("ALPACA_API_KEY", c.Alpaca.APIKey)
	c.Alpaca.APISecret = getEnvString("ALPACA_API_SECRET", c.Alpaca.APISecret)
	c.Alpaca.BaseURL = getEnvString("ALPACA_BASE_URL", c.Alpaca.BaseURL)

	c.Tavily.APIKey = getEnvString("TAVILY_API_KEY", c.Tavily.APIKey)
	c.Tavily.BaseURL = getEnvString("TAVILY_BASE_URL", c.Tavily.BaseURL)
	c.Tavily.MaxResults = getEnvInt("NEWS_MAX_RESULTS", c.Tavily.MaxResults)
	c.Tavily.SearchDepth = getEnvString("NEWS_SEARCH_DEPTH", c.Tavily.SearchDepth)

	c.OpenAI.APIKey = getEnvString("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = getEnvString("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = getEnvString("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.ReasoningEffort = getEnvString("OPENAI_REASONING_EFFORT", c.OpenAI.ReasoningEffort)
	c.OpenAI.MaxCompletionTokens = getEnvInt("OPENAI_MAX_COMPLETION_TOKENS", c.OpenAI.MaxCompletionTokens)

	c.Session.IdleTimeoutMinutes = getEnvInt("SESSION_IDLE_TIMEOUT_MINUTES", c.Session.IdleTimeoutMinutes)
	c.Session.SweepSchedule = getEnvString("SESSION_SWEEP_SCHEDULE", c.Session.SweepSchedule)

	c.Log.Format = strings.ToLower(getEnvString("LOG_FORMAT", c.Log.Format))
	c.Log.Level = strings.ToLower(getEnvString("LOG_LEVEL", c.Log.Level))

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.MarketData.Provider {
	case ProviderYahoo:
	case ProviderAlpaca:
		if !c.HasAlpaca() {
			return fmt.Errorf("MARKET_DATA_PROVIDER=alpaca requires ALPACA_API_KEY and ALPACA_API_SECRET")
		}
	default:
		return fmt.Errorf("MARKET_DATA_PROVIDER must be %q or %q, got %q", ProviderYahoo, ProviderAlpaca, c.MarketData.Provider)
	}

	if c.Tavily.MaxResults <= 0 {
		return fmt.Errorf("NEWS_MAX_RESULTS must be positive, got %d", c.Tavily.MaxResults)
	}
	switch c.Tavily.SearchDepth {
	case "basic", "advanced":
	default:
		return fmt.Errorf("NEWS_SEARCH_DEPTH must be basic or advanced, got %q", c.Tavily.SearchDepth)
	}

	if c.OpenAI.MaxCompletionTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_COMPLETION_TOKENS must be positive, got %d", c.OpenAI.MaxCompletionTokens)
	}
	switch c.OpenAI.ReasoningEffort {
	case "minimal", "low", "medium", "high":
	default:
		return fmt.Errorf("OPENAI_REASONING_EFFORT must be minimal, low, medium or high, got %q", c.OpenAI.ReasoningEffort)
	}

	if c.Session.IdleTimeoutMinutes <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT_MINUTES must be positive, got %d", c.Session.IdleTimeoutMinutes)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// IsProduction reports whether logs should be emitted as JSON
func (c *Config) IsProduction() bool {
	return c.Log.Format == "json"
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return defaults()
}
