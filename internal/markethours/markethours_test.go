package markethours

import (
	"testing"
	"time"
)

func TestIsMarketOpen(t *testing.T) {
	// Wednesday 2026-03-04, 11:00 IST — regular session.
	open := time.Date(2026, time.March, 4, 11, 0, 0, 0, IST)
	if !IsMarketOpen(open) {
		t.Error("expected market open mid-session on a weekday")
	}

	// Same day after close.
	closed := time.Date(2026, time.March, 4, 16, 0, 0, 0, IST)
	if IsMarketOpen(closed) {
		t.Error("expected market closed after 15:30")
	}

	// Saturday.
	sat := time.Date(2026, time.March, 7, 11, 0, 0, 0, IST)
	if IsMarketOpen(sat) {
		t.Error("expected market closed on Saturday")
	}

	// Republic Day holiday (Monday 2026-01-26).
	holiday := time.Date(2026, time.January, 26, 11, 0, 0, 0, IST)
	if IsMarketOpen(holiday) {
		t.Error("expected market closed on holiday")
	}
}

func TestIsTradingDay(t *testing.T) {
	if IsTradingDay(time.Date(2026, time.January, 26, 10, 0, 0, 0, IST)) {
		t.Error("Republic Day must not be a trading day")
	}
	if !IsTradingDay(time.Date(2026, time.January, 27, 10, 0, 0, 0, IST)) {
		t.Error("expected a regular Tuesday to be a trading day")
	}
}

func TestNextTradingDaySkipsWeekend(t *testing.T) {
	// Friday 2026-03-06 → Monday 2026-03-09.
	friday := time.Date(2026, time.March, 6, 16, 0, 0, 0, IST)
	next := NextTradingDay(friday)
	if next.Weekday() != time.Monday || next.Day() != 9 {
		t.Errorf("expected Monday the 9th, got %v", next)
	}
}

func TestTimezoneConversion(t *testing.T) {
	// 06:00 UTC is 11:30 IST — inside the session.
	utc := time.Date(2026, time.March, 4, 6, 0, 0, 0, time.UTC)
	if !IsMarketOpen(utc) {
		t.Error("expected UTC input converted to IST before the session check")
	}
}
