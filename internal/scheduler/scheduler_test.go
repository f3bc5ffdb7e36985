package scheduler

import (
	"context"
	"testing"
	"time"

	"signalscan/internal/model"
	"signalscan/internal/provider"
	"signalscan/internal/scanner"
)

func tinySeries(n int) model.Series {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, n)
	for i := range s {
		c := 100 + float64(i)
		s[i] = model.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return s
}

func TestTriggerScanManual(t *testing.T) {
	p := provider.NewMock()
	p.Bars["AAA"] = tinySeries(10)
	p.Bars["BBB"] = tinySeries(10)
	sc := scanner.New(p, scanner.Config{}, nil, nil, nil)
	s := New(sc, []string{"AAA", "BBB"}, nil, nil, nil)

	rep, err := s.TriggerScan(context.Background(), "manual")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if rep == nil || rep.TotalSymbols != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestTriggerScanRejectsOverlap(t *testing.T) {
	p := provider.NewMock()
	sc := scanner.New(p, scanner.Config{}, nil, nil, nil)
	s := New(sc, []string{"AAA"}, nil, nil, nil)

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	if _, err := s.TriggerScan(context.Background(), "manual"); err != ErrScanInProgress {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
}

func TestRegisterBadSpec(t *testing.T) {
	p := provider.NewMock()
	sc := scanner.New(p, scanner.Config{}, nil, nil, nil)
	s := New(sc, nil, nil, nil, nil)

	if err := s.Register(context.Background(), "not a cron spec"); err == nil {
		t.Fatal("expected error for malformed spec")
	}
	if err := s.Register(context.Background(), ""); err != nil {
		t.Fatalf("default spec must register: %v", err)
	}
}
