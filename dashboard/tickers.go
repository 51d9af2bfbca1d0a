package dashboard

import "strings"

// ParseTickers splits comma separated input into upper-case symbols.
// Blank tokens are dropped; order and duplicates are kept.
func ParseTickers(input string) []string {
	parts := strings.Split(input, ",")
	tickers := make([]string, 0, len(parts))
	for _, part := range parts {
		ticker := strings.ToUpper(strings.TrimSpace(part))
		if ticker == "" {
			continue
		}
		tickers = append(tickers, ticker)
	}
	return tickers
}
