package report

import (
	"testing"
	"time"

	"signalscan/internal/model"
)

func chartSeries(closes []float64) model.Series {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return s
}

func TestBuildChartOverlayAlignment(t *testing.T) {
	closes := make([]float64, 220)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	chart := BuildChart("INFY.NS", chartSeries(closes))

	if chart.Symbol != "INFY.NS" {
		t.Errorf("symbol = %q", chart.Symbol)
	}
	if len(chart.Points) != 220 {
		t.Fatalf("expected 220 points, got %d", len(chart.Points))
	}
	if chart.Points[48].MA50 != nil {
		t.Errorf("MA50 defined before its window filled")
	}
	if chart.Points[49].MA50 == nil {
		t.Fatalf("MA50 missing at first full window")
	}
	// Mean of an arithmetic ramp is its midpoint.
	if got := *chart.Points[49].MA50; got != 124.5 {
		t.Errorf("MA50[49] = %.2f, want 124.50", got)
	}
	if chart.Points[198].MA200 != nil {
		t.Errorf("MA200 defined before its window filled")
	}
	if chart.Points[199].MA200 == nil {
		t.Fatalf("MA200 missing at first full window")
	}
	if got := *chart.Points[199].MA200; got != 199.5 {
		t.Errorf("MA200[199] = %.2f, want 199.50", got)
	}
}

func TestBuildChartMarkers(t *testing.T) {
	// Decline then rise produces one golden cross after warm-up.
	closes := make([]float64, 0, 400)
	price := 300.0
	for i := 0; i < 250; i++ {
		price -= 0.5
		closes = append(closes, price)
	}
	for i := 0; i < 150; i++ {
		price += 2.0
		closes = append(closes, price)
	}
	chart := BuildChart("SBIN.NS", chartSeries(closes))

	if len(chart.Markers) != 1 {
		t.Fatalf("expected one marker, got %d", len(chart.Markers))
	}
	if chart.Markers[0].Kind != model.GoldenCross {
		t.Errorf("marker kind = %s, want golden", chart.Markers[0].Kind)
	}
}
