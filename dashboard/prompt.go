package dashboard

import (
	"fmt"

	"stonk-news/models"
)

// newsPromptLimit caps how much of the news blob is sent to the model
const newsPromptLimit = 2000

const promptTemplate = `Analyze the following stock and provide a brief bullish/bearish recommendation:

Stock: %s (%s)
Current Price: %s
Period Change: %s
52-Week High: %s
52-Week Low: %s

Recent News:
%s

Provide a concise analysis (2-3 paragraphs) with:
1. Technical outlook based on price action
2. Sentiment from recent news
3. Overall recommendation: BULLISH, BEARISH, or NEUTRAL with brief reasoning`

// BuildPrompt renders the analysis request for one ticker
func BuildPrompt(ticker string, history *models.PriceHistory, stats models.PriceStats, newsBlob string) string {
	name := history.Meta.LongName
	if name == "" {
		name = "Unknown"
	}

	return fmt.Sprintf(promptTemplate,
		ticker,
		name,
		models.FormatPrice(stats.LastClose),
		models.FormatPercent(stats.ChangePercent),
		models.FormatOptionalPrice(history.Meta.FiftyTwoWeekHigh),
		models.FormatOptionalPrice(history.Meta.FiftyTwoWeekLow),
		models.TruncateRunes(newsBlob, newsPromptLimit),
	)
}

// SearchQuery is the news query for a ticker, preferring the company name
func SearchQuery(ticker string, history *models.PriceHistory) string {
	name := history.Meta.LongName
	if name == "" {
		name = ticker
	}
	return name + " stock news"
}
