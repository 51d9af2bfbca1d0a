package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func barsWithCloses(closes ...float64) []Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, 0, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		bars = append(bars, Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(1)),
			Low:       price.Sub(decimal.NewFromInt(1)),
			Close:     price,
		})
	}
	return bars
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input string
		want  Period
	}{
		{"1mo", Period1Month},
		{"3mo", Period3Months},
		{"6mo", Period6Months},
		{"1y", Period1Year},
		{"2y", Period2Years},
		{"5y", Period5Years},
		{"", DefaultPeriod},
		{"10y", DefaultPeriod},
		{"1MO", DefaultPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePeriod(tt.input); got != tt.want {
				t.Errorf("ParsePeriod(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestPeriods_DefaultIsFirst(t *testing.T) {
	if len(Periods) != 6 {
		t.Fatalf("expected 6 periods, got %d", len(Periods))
	}
	if Periods[0] != DefaultPeriod {
		t.Errorf("first period = %s, want %s", Periods[0], DefaultPeriod)
	}
}

func TestPeriod_Start(t *testing.T) {
	end := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		period Period
		want   time.Time
	}{
		{Period1Month, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)},
		{Period3Months, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{Period1Year, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)},
		{Period5Years, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			if got := tt.period.Start(end); !got.Equal(tt.want) {
				t.Errorf("Start() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceHistory_Empty(t *testing.T) {
	var nilHistory *PriceHistory
	if !nilHistory.Empty() {
		t.Error("nil history should be empty")
	}

	h := &PriceHistory{Symbol: "AAPL"}
	if !h.Empty() {
		t.Error("history without bars should be empty")
	}

	h.Bars = barsWithCloses(100)
	if h.Empty() {
		t.Error("history with bars should not be empty")
	}
}

func TestPriceHistory_DisplayName(t *testing.T) {
	h := &PriceHistory{Symbol: "AAPL"}
	if got := h.DisplayName(); got != "AAPL" {
		t.Errorf("DisplayName() = %s, want AAPL", got)
	}

	h.Meta.LongName = "Apple Inc."
	if got := h.DisplayName(); got != "Apple Inc." {
		t.Errorf("DisplayName() = %s, want Apple Inc.", got)
	}
}

func TestPriceHistory_Stats(t *testing.T) {
	tests := []struct {
		name       string
		closes     []float64
		wantLast   string
		wantChange string
		wantHigh   string
		wantLow    string
	}{
		{"rise", []float64{100, 105, 110}, "$110.00", "10.00%", "$111.00", "$99.00"},
		{"fall", []float64{110, 104, 100}, "$100.00", "-9.09%", "$111.00", "$99.00"},
		{"flat single bar", []float64{42.5}, "$42.50", "0.00%", "$43.50", "$41.50"},
		{"zero first close", []float64{0, 10}, "$10.00", "0.00%", "$11.00", "$-1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &PriceHistory{Symbol: "TEST", Bars: barsWithCloses(tt.closes...)}
			stats := h.Stats()

			if got := FormatPrice(stats.LastClose); got != tt.wantLast {
				t.Errorf("last close = %s, want %s", got, tt.wantLast)
			}
			if got := FormatPercent(stats.ChangePercent); got != tt.wantChange {
				t.Errorf("change = %s, want %s", got, tt.wantChange)
			}
			if got := FormatPrice(stats.High); got != tt.wantHigh {
				t.Errorf("high = %s, want %s", got, tt.wantHigh)
			}
			if got := FormatPrice(stats.Low); got != tt.wantLow {
				t.Errorf("low = %s, want %s", got, tt.wantLow)
			}
		})
	}
}

func TestFormatOptionalPrice(t *testing.T) {
	if got := FormatOptionalPrice(decimal.NullDecimal{}); got != "N/A" {
		t.Errorf("FormatOptionalPrice(null) = %s, want N/A", got)
	}

	valid := decimal.NewNullDecimal(decimal.RequireFromString("199.62"))
	if got := FormatOptionalPrice(valid); got != "$199.62" {
		t.Errorf("FormatOptionalPrice(valid) = %s, want $199.62", got)
	}
}
