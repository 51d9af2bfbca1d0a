package dashboard

import (
	"time"

	"stonk-news/models"
)

// SectionState says how a news or analysis section renders
type SectionState string

const (
	SectionHidden      SectionState = "hidden"
	SectionPlaceholder SectionState = "placeholder"
	SectionWarning     SectionState = "warning"
	SectionShown       SectionState = "shown"
)

const (
	searchKeyPlaceholder     = "Add Tavily API key for news search"
	generationKeyPlaceholder = "Add OpenAI API key for AI analysis"
)

// NewsSection is the news block under a ticker's chart
type NewsSection struct {
	State   SectionState        `json:"state"`
	Message string              `json:"message,omitempty"`
	Results []models.NewsResult `json:"results,omitempty"`
}

// AnalysisSection is the generated analysis block
type AnalysisSection struct {
	State   SectionState   `json:"state"`
	Message string         `json:"message,omitempty"`
	Verdict models.Verdict `json:"verdict,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// TickerSection is everything rendered for one ticker.
// When Failure is set nothing but the header and the error is shown.
type TickerSection struct {
	Ticker   string               `json:"ticker"`
	Failure  *StepError           `json:"-"`
	History  *models.PriceHistory `json:"history,omitempty"`
	Stats    models.PriceStats    `json:"stats"`
	News     NewsSection          `json:"news"`
	Analysis AnalysisSection      `json:"analysis"`
}

// Failed reports whether the price step stopped this ticker
func (s TickerSection) Failed() bool {
	return s.Failure != nil
}

// Verdict returns the badge for the header, if an analysis was rendered
func (s TickerSection) Verdict() (models.Verdict, bool) {
	if s.Analysis.State != SectionShown {
		return "", false
	}
	return s.Analysis.Verdict, true
}

// Status is the outcome label used for metrics and logs
func (s TickerSection) Status() string {
	if s.Failure != nil {
		return string(s.Failure.Kind)
	}
	return "ok"
}

// Report is the result of one Analyze submission, one section per ticker in input order
type Report struct {
	Period    models.Period   `json:"period"`
	Sections  []TickerSection `json:"sections"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}
