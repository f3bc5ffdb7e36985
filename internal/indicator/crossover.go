package indicator

import "signalscan/internal/model"

// Moving-average windows for crossover detection.
const (
	FastWindow = 50
	SlowWindow = 200
)

// DetectCrossovers returns every MA50/MA200 crossover in the series, in
// date order.
//
// A golden cross fires at index i iff MA50[i] > MA200[i] and
// MA50[i-1] <= MA200[i-1] (both defined); a death cross is the mirror.
// Series shorter than 200 bars yield no events — insufficient history,
// not an error. Adjacent events always alternate direction; that falls
// out of testing against the prior bar.
func DetectCrossovers(s model.Series) []model.CrossEvent {
	if len(s) < SlowWindow {
		return nil
	}

	closes := s.Closes()
	fast := SMASeries(closes, FastWindow)
	slow := SMASeries(closes, SlowWindow)

	var events []model.CrossEvent
	for i := SlowWindow; i < len(s); i++ {
		switch {
		case fast[i] > slow[i] && fast[i-1] <= slow[i-1]:
			events = append(events, model.CrossEvent{Date: s[i].Date, Kind: model.GoldenCross, Close: s[i].Close})
		case fast[i] < slow[i] && fast[i-1] >= slow[i-1]:
			events = append(events, model.CrossEvent{Date: s[i].Date, Kind: model.DeathCross, Close: s[i].Close})
		}
	}
	return events
}

// RecentCross returns the most recent crossover dated within the trailing
// `window` bars of the series, if any. Golden crosses take precedence:
// when both kinds occurred inside the window, the latest golden cross
// wins over any death cross.
func RecentCross(s model.Series, window int) (model.CrossEvent, bool) {
	events := DetectCrossovers(s)
	if len(events) == 0 || window <= 0 {
		return model.CrossEvent{}, false
	}

	cutoff := s[0].Date
	if len(s) > window {
		cutoff = s[len(s)-window].Date
	}

	var golden, death *model.CrossEvent
	for i := range events {
		ev := events[i]
		if ev.Date.Before(cutoff) {
			continue
		}
		switch ev.Kind {
		case model.GoldenCross:
			golden = &events[i]
		case model.DeathCross:
			death = &events[i]
		}
	}

	if golden != nil {
		return *golden, true
	}
	if death != nil {
		return *death, true
	}
	return model.CrossEvent{}, false
}
