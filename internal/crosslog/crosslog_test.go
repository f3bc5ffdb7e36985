package crosslog

import (
	"math"
	"testing"
	"time"

	"signalscan/internal/model"
)

func mkSeries(closes []float64) model.Series {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

// vShape falls then rises then falls again, producing a golden cross
// followed by a death cross.
func vShape() model.Series {
	closes := make([]float64, 0, 650)
	price := 300.0
	for i := 0; i < 250; i++ {
		price -= 0.5
		closes = append(closes, price)
	}
	for i := 0; i < 200; i++ {
		price += 2.0
		closes = append(closes, price)
	}
	for i := 0; i < 200; i++ {
		price -= 2.0
		closes = append(closes, price)
	}
	return mkSeries(closes)
}

func TestBuild_ShortSeries(t *testing.T) {
	if entries := Build(mkSeries(make([]float64, 150))); entries != nil {
		t.Errorf("expected nil log below 200 bars, got %d entries", len(entries))
	}
}

func TestBuild_SortedNewestFirst(t *testing.T) {
	entries := Build(vShape())
	if len(entries) < 2 {
		t.Fatalf("fixture: expected at least 2 events, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Event.Date.After(entries[i-1].Event.Date) {
			t.Errorf("entries not descending by date at index %d", i)
		}
	}
	// Alternating directions: newest is the death cross of the final leg.
	if entries[0].Event.Kind != model.DeathCross {
		t.Errorf("newest event: got %s, want %s", entries[0].Event.Kind, model.DeathCross)
	}
	if entries[len(entries)-1].Event.Kind != model.GoldenCross {
		t.Errorf("oldest event: got %s, want %s", entries[len(entries)-1].Event.Kind, model.GoldenCross)
	}
}

func TestBuild_ChangeTracking(t *testing.T) {
	s := vShape()
	last := s.Last()
	for _, e := range Build(s) {
		want := (last.Close - e.Event.Close) / e.Event.Close * 100
		if math.Abs(e.ChangePct-want) > 1e-9 {
			t.Errorf("%s: change %.4f, want %.4f", e.Event.Date.Format("2006-01-02"), e.ChangePct, want)
		}
		wantDays := int(last.Date.Sub(e.Event.Date).Hours() / 24)
		if e.DaysSince != wantDays {
			t.Errorf("%s: days since %d, want %d", e.Event.Date.Format("2006-01-02"), e.DaysSince, wantDays)
		}
		if e.DaysSince < 0 {
			t.Errorf("days since must be non-negative, got %d", e.DaysSince)
		}
	}
}
