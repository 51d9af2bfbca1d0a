package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is the lookback window for historical price retrieval
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
)

// DefaultPeriod is selected when the user has not picked one
const DefaultPeriod = Period1Month

// Periods lists the selectable periods in dropdown order
var Periods = []Period{
	Period1Month,
	Period3Months,
	Period6Months,
	Period1Year,
	Period2Years,
	Period5Years,
}

// ParsePeriod returns the matching period, or DefaultPeriod for unknown input
func ParsePeriod(s string) Period {
	for _, p := range Periods {
		if string(p) == s {
			return p
		}
	}
	return DefaultPeriod
}

// Label returns a human readable name for the period
func (p Period) Label() string {
	switch p {
	case Period1Month:
		return "1 month"
	case Period3Months:
		return "3 months"
	case Period6Months:
		return "6 months"
	case Period1Year:
		return "1 year"
	case Period2Years:
		return "2 years"
	case Period5Years:
		return "5 years"
	default:
		return string(p)
	}
}

// Start returns the beginning of the window ending at end
func (p Period) Start(end time.Time) time.Time {
	switch p {
	case Period3Months:
		return end.AddDate(0, -3, 0)
	case Period6Months:
		return end.AddDate(0, -6, 0)
	case Period1Year:
		return end.AddDate(-1, 0, 0)
	case Period2Years:
		return end.AddDate(-2, 0, 0)
	case Period5Years:
		return end.AddDate(-5, 0, 0)
	default:
		return end.AddDate(0, -1, 0)
	}
}

// Bar represents OHLC price data for one time bucket
type Bar struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
}

// TickerMeta is descriptive metadata returned alongside a price series
type TickerMeta struct {
	LongName         string              `json:"long_name,omitempty"`
	FiftyTwoWeekHigh decimal.NullDecimal `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  decimal.NullDecimal `json:"fifty_two_week_low"`
}

// PriceHistory is the immutable price series for one ticker over a period
type PriceHistory struct {
	Symbol string     `json:"symbol"`
	Period Period     `json:"period"`
	Bars   []Bar      `json:"bars"`
	Meta   TickerMeta `json:"meta"`
}

// Empty reports whether the provider returned no bars, which signals an unknown symbol
func (h *PriceHistory) Empty() bool {
	return h == nil || len(h.Bars) == 0
}

// DisplayName returns the company long name, falling back to the symbol
func (h *PriceHistory) DisplayName() string {
	if h.Meta.LongName != "" {
		return h.Meta.LongName
	}
	return h.Symbol
}

// PriceStats are the summary metrics shown above the chart
type PriceStats struct {
	LastClose     decimal.Decimal `json:"last_close"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
}

var hundred = decimal.NewFromInt(100)

// Stats computes summary metrics. The history must not be empty.
func (h *PriceHistory) Stats() PriceStats {
	first := h.Bars[0].Close
	last := h.Bars[len(h.Bars)-1].Close

	high := h.Bars[0].High
	low := h.Bars[0].Low
	for _, bar := range h.Bars[1:] {
		high = decimal.Max(high, bar.High)
		low = decimal.Min(low, bar.Low)
	}

	change := decimal.Zero
	if !first.IsZero() {
		change = last.Sub(first).Mul(hundred).Div(first)
	}

	return PriceStats{
		LastClose:     last,
		ChangePercent: change,
		High:          high,
		Low:           low,
	}
}

// FormatPrice renders a price as dollars with two decimals
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatPercent renders a percentage with two decimals
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// FormatOptionalPrice renders a nullable price, or N/A when absent
func FormatOptionalPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return "$" + d.Decimal.String()
}
