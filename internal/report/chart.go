package report

import (
	"time"

	"signalscan/internal/indicator"
	"signalscan/internal/model"
)

// ChartPoint is one daily sample on the price chart. MA values are nil
// until their window has filled.
type ChartPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	MA50  *float64  `json:"ma50,omitempty"`
	MA200 *float64  `json:"ma200,omitempty"`
}

// ChartMarker flags a crossover event on the chart.
type ChartMarker struct {
	Date  time.Time       `json:"date"`
	Kind  model.CrossKind `json:"kind"`
	Close float64         `json:"close"`
}

// Chart is the payload behind the per-symbol chart endpoint.
type Chart struct {
	Symbol  string        `json:"symbol"`
	Points  []ChartPoint  `json:"points"`
	Markers []ChartMarker `json:"markers"`
}

// BuildChart computes the moving-average overlays and cross markers for
// one symbol's history.
func BuildChart(symbol string, s model.Series) *Chart {
	closes := s.Closes()
	fast := indicator.SMASeries(closes, indicator.FastWindow)
	slow := indicator.SMASeries(closes, indicator.SlowWindow)

	points := make([]ChartPoint, len(s))
	for i := range s {
		points[i] = ChartPoint{
			Date:  s[i].Date,
			Close: s[i].Close,
			MA50:  optional(fast[i]),
			MA200: optional(slow[i]),
		}
	}

	events := indicator.DetectCrossovers(s)
	markers := make([]ChartMarker, len(events))
	for i, ev := range events {
		markers[i] = ChartMarker{Date: ev.Date, Kind: ev.Kind, Close: ev.Close}
	}

	return &Chart{Symbol: symbol, Points: points, Markers: markers}
}

func optional(v float64) *float64 {
	if !indicator.Defined(v) {
		return nil
	}
	return &v
}
