package dashboard

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"stonk-news/models"
	"stonk-news/observability"
	"stonk-news/services"
)

// errEmptyAnalysis marks a completion that produced no text
var errEmptyAnalysis = errors.New("model returned no text")

// Options tunes the news search
type Options struct {
	MaxResults  int
	SearchDepth string
}

// DefaultOptions request five basic-depth results
var DefaultOptions = Options{MaxResults: 5, SearchDepth: "basic"}

// Analyzer runs the per-ticker price, news and analysis pipeline
type Analyzer struct {
	market services.MarketDataProvider
	search services.SearchProvider
	gen    services.GenerationProvider
	opts   Options
}

// NewAnalyzer creates an Analyzer over the given providers
func NewAnalyzer(market services.MarketDataProvider, search services.SearchProvider, gen services.GenerationProvider, opts Options) *Analyzer {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions.MaxResults
	}
	if opts.SearchDepth == "" {
		opts.SearchDepth = DefaultOptions.SearchDepth
	}
	return &Analyzer{
		market: market,
		search: search,
		gen:    gen,
		opts:   opts,
	}
}

// RunRequest is one Analyze submission
type RunRequest struct {
	Tickers     []string
	Period      models.Period
	Credentials models.Credentials
}

// Run processes tickers one after another. A failure in one ticker never affects the next.
func (a *Analyzer) Run(ctx context.Context, req RunRequest) *Report {
	ctx, span := observability.StartSpan(ctx, "dashboard.run",
		attribute.Int("tickers", len(req.Tickers)),
		attribute.String("period", string(req.Period)))
	defer span.End()

	metrics := observability.GetMetrics()
	metrics.RecordAnalysisRun()

	report := &Report{
		Period:    req.Period,
		Sections:  make([]TickerSection, 0, len(req.Tickers)),
		StartedAt: time.Now(),
	}

	for _, ticker := range req.Tickers {
		var section TickerSection
		if err := ctx.Err(); err != nil {
			// The caller went away. Every ticker still gets a section.
			section = TickerSection{Ticker: ticker, Failure: &StepError{Kind: KindCancelled, Ticker: ticker, Err: err}}
			a.recordFailure(ctx, section.Failure)
		} else {
			section = a.analyzeTicker(ctx, ticker, req.Period, req.Credentials)
		}
		metrics.RecordTicker(section.Status())
		report.Sections = append(report.Sections, section)
	}

	report.Duration = time.Since(report.StartedAt)
	observability.WithContext(ctx).Info("analysis run completed",
		"tickers", len(report.Sections),
		"duration", report.Duration)
	return report
}

func (a *Analyzer) analyzeTicker(ctx context.Context, ticker string, period models.Period, creds models.Credentials) TickerSection {
	ctx, span := observability.StartSpan(ctx, "dashboard.ticker", attribute.String("symbol", ticker))
	defer span.End()

	section := TickerSection{Ticker: ticker}

	price := a.fetchPrice(ctx, ticker, period)
	if !price.Ok() {
		a.recordFailure(ctx, price.Err)
		section.Failure = price.Err
		return section
	}
	section.History = price.Value
	section.Stats = price.Value.Stats()

	if !creds.HasSearch() {
		section.News = NewsSection{State: SectionPlaceholder, Message: searchKeyPlaceholder}
		return section
	}

	news := a.searchNews(ctx, ticker, price.Value, creds.SearchKey)
	if !news.Ok() {
		a.recordFailure(ctx, news.Err)
		section.News = NewsSection{State: SectionWarning, Message: news.Err.Error()}
		return section
	}
	section.News = NewsSection{State: SectionShown, Results: news.Value}

	if !creds.HasGeneration() {
		section.Analysis = AnalysisSection{State: SectionPlaceholder, Message: generationKeyPlaceholder}
		return section
	}

	blob := models.NewsBlob(news.Value)
	if blob == "" {
		return section
	}

	analysis := a.generate(ctx, ticker, BuildPrompt(ticker, price.Value, section.Stats, blob), creds.GenerationKey)
	if !analysis.Ok() {
		a.recordFailure(ctx, analysis.Err)
		if analysis.Err.Kind == KindAnalysisError {
			section.Analysis = AnalysisSection{State: SectionWarning, Message: analysis.Err.Error()}
		}
		return section
	}

	verdict := models.ClassifyAnalysis(analysis.Value)
	observability.GetMetrics().RecordVerdict(string(verdict))
	section.Analysis = AnalysisSection{State: SectionShown, Verdict: verdict, Text: analysis.Value}
	return section
}

func (a *Analyzer) fetchPrice(ctx context.Context, ticker string, period models.Period) Result[*models.PriceHistory] {
	timer := observability.GetMetrics().NewTimer()

	history, err := guard(func() (*models.PriceHistory, error) {
		return a.market.GetHistory(ctx, ticker, period)
	})
	switch {
	case err != nil:
		timer.ObserveStep("price", "error")
		return fail[*models.PriceHistory](KindPriceError, ticker, err)
	case history.Empty():
		timer.ObserveStep("price", "not_found")
		return fail[*models.PriceHistory](KindNotFound, ticker, nil)
	}

	timer.ObserveStep("price", "ok")
	return ok(history)
}

func (a *Analyzer) searchNews(ctx context.Context, ticker string, history *models.PriceHistory, apiKey string) Result[[]models.NewsResult] {
	timer := observability.GetMetrics().NewTimer()

	results, err := guard(func() ([]models.NewsResult, error) {
		return a.search.Search(ctx, apiKey, services.SearchRequest{
			Query:       SearchQuery(ticker, history),
			MaxResults:  a.opts.MaxResults,
			SearchDepth: a.opts.SearchDepth,
		})
	})
	if err != nil {
		timer.ObserveStep("news", "error")
		return fail[[]models.NewsResult](KindSearchError, ticker, err)
	}

	timer.ObserveStep("news", "ok")
	return ok(results)
}

func (a *Analyzer) generate(ctx context.Context, ticker, prompt, apiKey string) Result[string] {
	timer := observability.GetMetrics().NewTimer()

	text, err := guard(func() (string, error) {
		return a.gen.Generate(ctx, apiKey, prompt)
	})
	switch {
	case err != nil:
		timer.ObserveStep("analysis", "error")
		return fail[string](KindAnalysisError, ticker, err)
	case text == "":
		timer.ObserveStep("analysis", "empty")
		return fail[string](KindEmptyAnalysis, ticker, errEmptyAnalysis)
	}

	timer.ObserveStep("analysis", "ok")
	return ok(text)
}

func (a *Analyzer) recordFailure(ctx context.Context, stepErr *StepError) {
	observability.GetMetrics().RecordAnalysisError(string(stepErr.Kind))

	logger := observability.WithStep(ctx, stepErr.Ticker, string(stepErr.Kind))
	if stepErr.Kind == KindEmptyAnalysis || stepErr.Kind == KindNotFound {
		logger.Info(stepErr.Error())
		return
	}
	logger.Warn("ticker step failed", "error", stepErr.Err)
}
