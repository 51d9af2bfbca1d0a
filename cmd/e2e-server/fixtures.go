package main

import (
	"stonk-news/e2e/mocks"
)

// seedFixtures adds the symbols browser tests use on top of the mock defaults.
// BEAR always trends down and FLAT never moves.
func seedFixtures(m *mocks.MockServer) {
	m.SetSeries("GOOGL", mocks.ChartSeries{
		LongName: "Alphabet Inc.",
		Closes:   []float64{140, 142.25, 139.5, 145, 151.75},
	})
	m.SetSeries("BEAR", mocks.ChartSeries{
		LongName: "Bear Industries",
		Closes:   trend(80, -1.5, 20),
	})
	m.SetSeries("FLAT", mocks.ChartSeries{
		Closes: trend(50, 0, 10),
	})
}

func trend(start, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return closes
}
