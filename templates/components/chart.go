package components

import (
	"stonk-news/models"
)

const chartHeight = 400

// candlestickTrace is a Plotly candlestick trace
type candlestickTrace struct {
	Type  string    `json:"type"`
	Name  string    `json:"name"`
	X     []string  `json:"x"`
	Open  []float64 `json:"open"`
	High  []float64 `json:"high"`
	Low   []float64 `json:"low"`
	Close []float64 `json:"close"`
}

type axis struct {
	Title       string     `json:"title"`
	RangeSlider *rangeOpts `json:"rangeslider,omitempty"`
}

type rangeOpts struct {
	Visible bool `json:"visible"`
}

type chartLayout struct {
	Title  string `json:"title"`
	XAxis  axis   `json:"xaxis"`
	YAxis  axis   `json:"yaxis"`
	Height int    `json:"height"`
}

// ChartData is the figure handed to Plotly.newPlot
type ChartData struct {
	Data   []candlestickTrace `json:"data"`
	Layout chartLayout        `json:"layout"`
}

// NewChartData builds the candlestick figure for a price history
func NewChartData(ticker string, history *models.PriceHistory) ChartData {
	trace := candlestickTrace{
		Type:  "candlestick",
		Name:  ticker,
		X:     make([]string, 0, len(history.Bars)),
		Open:  make([]float64, 0, len(history.Bars)),
		High:  make([]float64, 0, len(history.Bars)),
		Low:   make([]float64, 0, len(history.Bars)),
		Close: make([]float64, 0, len(history.Bars)),
	}
	for _, bar := range history.Bars {
		trace.X = append(trace.X, bar.Timestamp.Format("2006-01-02"))
		trace.Open = append(trace.Open, bar.Open.InexactFloat64())
		trace.High = append(trace.High, bar.High.InexactFloat64())
		trace.Low = append(trace.Low, bar.Low.InexactFloat64())
		trace.Close = append(trace.Close, bar.Close.InexactFloat64())
	}

	return ChartData{
		Data: []candlestickTrace{trace},
		Layout: chartLayout{
			Title:  ticker + " Price History",
			XAxis:  axis{Title: "Date", RangeSlider: &rangeOpts{Visible: false}},
			YAxis:  axis{Title: "Price (USD)"},
			Height: chartHeight,
		},
	}
}
