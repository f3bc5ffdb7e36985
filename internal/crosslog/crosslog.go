// Package crosslog derives the full historical crossover log for one
// instrument: every MA50/MA200 cross with post-event price tracking.
//
// Distinct from the scanner's recent-cross filter, which only looks at a
// trailing window to decide whether a symbol is actionable — the log
// covers the whole fetched history and is meant for presentation.
package crosslog

import (
	"sort"

	"signalscan/internal/indicator"
	"signalscan/internal/model"
)

// Entry is one historical crossover with change tracking relative to the
// last bar of the series.
type Entry struct {
	Event     model.CrossEvent `json:"event"`
	ChangePct float64          `json:"change_pct"` // (current - event close) / event close * 100
	DaysSince int              `json:"days_since"` // calendar days from event to last bar
}

// Build recomputes the crossover log from a series. Series shorter than
// 200 bars have no log. Entries are sorted descending by date, newest
// first.
func Build(s model.Series) []Entry {
	events := indicator.DetectCrossovers(s)
	if len(events) == 0 {
		return nil
	}

	last := s.Last()
	entries := make([]Entry, 0, len(events))
	for _, ev := range events {
		changePct := 0.0
		if ev.Close != 0 {
			changePct = (last.Close - ev.Close) / ev.Close * 100
		}
		entries = append(entries, Entry{
			Event:     ev,
			ChangePct: changePct,
			DaysSince: int(last.Date.Sub(ev.Date).Hours() / 24),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Event.Date.After(entries[j].Event.Date)
	})
	return entries
}
