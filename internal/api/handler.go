package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"stonk-news/config"
	"stonk-news/dashboard"
	"stonk-news/internal/app"
	"stonk-news/observability"
	"stonk-news/services"
	"stonk-news/templates"
	"stonk-news/templates/partials"
)

// SessionCookie names the cookie holding the browser's session ID
const SessionCookie = "stonk_session"

// maxBodyBytes bounds form and JSON request bodies
const maxBodyBytes = 1 << 20

// Dispatcher applies page events to sessions
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, ev *app.Event) app.View
}

// Handler handles HTTP requests
type Handler struct {
	app Dispatcher
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application Dispatcher, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleIndex renders the dashboard for the caller's session without running anything
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	view := h.app.Dispatch(r.Context(), sessionID(r), nil)
	h.setSessionCookie(w, r, view)
	h.htmlResponse(w, templates.Index(view), r)
}

// HandleSubmit applies a form submission. action=analyze runs the analysis, anything else only updates the session.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		if isHTMXRequest(r) {
			h.htmlError(w, "Failed to parse form", r)
			return
		}
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	ev := &app.Event{
		Tickers:       r.PostFormValue("tickers"),
		Period:        r.PostFormValue("period"),
		SearchKey:     optionalField(r, "tavily_key"),
		GenerationKey: optionalField(r, "openai_key"),
		Analyze:       r.PostFormValue("action") == "analyze",
	}

	view := h.app.Dispatch(r.Context(), sessionID(r), ev)
	h.setSessionCookie(w, r, view)

	if isHTMXRequest(r) {
		h.htmlResponse(w, partials.Results(view), r)
		return
	}
	h.htmlResponse(w, templates.Index(view), r)
}

// AnalyzeRequest represents a JSON analysis request
type AnalyzeRequest struct {
	Tickers string `json:"tickers"`
	Period  string `json:"period,omitempty"`
}

// TickerResult is one ticker in the JSON report, with the inline error message when the price step failed
type TickerResult struct {
	dashboard.TickerSection
	Error string `json:"error,omitempty"`
}

// AnalyzeResponse is the JSON form of a report
type AnalyzeResponse struct {
	Period     string         `json:"period"`
	Tickers    []TickerResult `json:"tickers"`
	DurationMs int64          `json:"duration_ms"`
}

// HandleAnalyze runs an analysis with the session's credentials and returns the report as JSON
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if len(dashboard.ParseTickers(req.Tickers)) == 0 {
		h.jsonError(w, "At least one ticker is required", http.StatusBadRequest)
		return
	}

	view := h.app.Dispatch(r.Context(), sessionID(r), &app.Event{
		Tickers: req.Tickers,
		Period:  req.Period,
		Analyze: true,
	})
	h.setSessionCookie(w, r, view)

	if view.Report == nil {
		h.jsonError(w, "Analysis did not run", http.StatusInternalServerError)
		return
	}

	resp := AnalyzeResponse{
		Period:     string(view.Report.Period),
		Tickers:    make([]TickerResult, 0, len(view.Report.Sections)),
		DurationMs: view.Report.Duration.Milliseconds(),
	}
	for _, s := range view.Report.Sections {
		result := TickerResult{TickerSection: s}
		if s.Failed() {
			result.Error = s.Failure.Error()
		}
		resp.Tickers = append(resp.Tickers, result)
	}

	h.jsonResponse(w, resp)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":               "ok",
		"market_data_provider": h.cfg.MarketData.Provider,
	}

	// Add circuit breaker status
	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	// Check if any breakers are open (degraded state)
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// setSessionCookie issues the cookie whenever the store handed out a new session
func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, view app.View) {
	if !view.NewSession {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    view.SessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// optionalField returns nil when the form did not include the field at all
func optionalField(r *http.Request, name string) *string {
	vals, ok := r.PostForm[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// templComponent matches the templ.Component interface
type templComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

func (h *Handler) htmlResponse(w http.ResponseWriter, component templComponent, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		observability.WithContext(r.Context()).Error("render failed", "error", err)
	}
}

func (h *Handler) htmlError(w http.ResponseWriter, message string, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	io.WriteString(w, `<div id="results"><div class="alert error" role="alert">`+templ.EscapeString(message)+`</div></div>`)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
