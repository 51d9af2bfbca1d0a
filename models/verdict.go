package models

import "strings"

// Verdict is the sentiment classification of a generated analysis
type Verdict string

const (
	VerdictBullish Verdict = "BULLISH"
	VerdictBearish Verdict = "BEARISH"
	VerdictNeutral Verdict = "NEUTRAL"
)

// ClassifyAnalysis picks the first keyword found, checking BULLISH before BEARISH.
// Text mentioning neither is NEUTRAL.
func ClassifyAnalysis(text string) Verdict {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, string(VerdictBullish)):
		return VerdictBullish
	case strings.Contains(upper, string(VerdictBearish)):
		return VerdictBearish
	default:
		return VerdictNeutral
	}
}

// Color returns the badge color for the verdict
func (v Verdict) Color() string {
	switch v {
	case VerdictBullish:
		return "green"
	case VerdictBearish:
		return "red"
	default:
		return "yellow"
	}
}

// Icon returns the emoji shown next to the badge text
func (v Verdict) Icon() string {
	switch v {
	case VerdictBullish:
		return "🟢"
	case VerdictBearish:
		return "🔴"
	default:
		return "🟡"
	}
}
