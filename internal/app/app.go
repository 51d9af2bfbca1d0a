package app

import (
	"context"

	"stonk-news/config"
	"stonk-news/dashboard"
	"stonk-news/internal/session"
	"stonk-news/models"
	"stonk-news/observability"
)

// AnalyzerInterface defines the analysis operations
type AnalyzerInterface interface {
	Run(ctx context.Context, req dashboard.RunRequest) *dashboard.Report
}

// SessionStore defines the session operations needed by App
type SessionStore interface {
	GetOrCreate(id string) (session.Session, bool)
	Update(id string, fn func(*session.Session)) (session.Session, bool)
	Len() int
}

// App holds application dependencies using interfaces for testability
type App struct {
	cfg      *config.Config
	sessions SessionStore
	analyzer AnalyzerInterface
}

// New creates a new App
func New(cfg *config.Config, sessions SessionStore, analyzer AnalyzerInterface) *App {
	return &App{
		cfg:      cfg,
		sessions: sessions,
		analyzer: analyzer,
	}
}

// Event is one user interaction with the page.
// Nil key pointers mean the field was not submitted and the session value is kept.
type Event struct {
	Tickers       string
	Period        string
	SearchKey     *string
	GenerationKey *string
	Analyze       bool
}

// View is everything needed to render the page after an event
type View struct {
	SessionID   string
	NewSession  bool
	TickerInput string
	Period      models.Period
	Credentials models.Credentials
	Provider    string
	Report      *dashboard.Report
}

// MaskedSearchKey returns the search key with its middle hidden
func (v View) MaskedSearchKey() string {
	return models.MaskKey(v.Credentials.SearchKey)
}

// MaskedGenerationKey returns the generation key with its middle hidden
func (v View) MaskedGenerationKey() string {
	return models.MaskKey(v.Credentials.GenerationKey)
}

// Dispatch applies an event to the caller's session and, for an Analyze
// submission with at least one ticker, runs the analysis. A nil event only
// renders the current session state.
func (a *App) Dispatch(ctx context.Context, sessionID string, ev *Event) View {
	sess, created := a.sessions.GetOrCreate(sessionID)
	if created {
		observability.GetMetrics().SetActiveSessions(a.sessions.Len())
	}

	if ev != nil {
		if updated, ok := a.sessions.Update(sess.ID, func(s *session.Session) {
			applyEvent(s, ev)
		}); ok {
			sess = updated
		}
	}

	view := View{
		SessionID:   sess.ID,
		NewSession:  created,
		TickerInput: sess.TickerInput,
		Period:      sess.Period,
		Credentials: sess.Credentials,
		Provider:    a.cfg.MarketData.Provider,
	}

	if ev == nil || !ev.Analyze {
		return view
	}

	tickers := dashboard.ParseTickers(sess.TickerInput)
	if len(tickers) == 0 {
		return view
	}

	view.Report = a.analyzer.Run(ctx, dashboard.RunRequest{
		Tickers:     tickers,
		Period:      sess.Period,
		Credentials: sess.Credentials,
	})
	return view
}

func applyEvent(s *session.Session, ev *Event) {
	s.TickerInput = ev.Tickers
	if ev.Period != "" {
		s.Period = models.ParsePeriod(ev.Period)
	}
	if ev.SearchKey != nil {
		s.Credentials.SearchKey = *ev.SearchKey
	}
	if ev.GenerationKey != nil {
		s.Credentials.GenerationKey = *ev.GenerationKey
	}
}
