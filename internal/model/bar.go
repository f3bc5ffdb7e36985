package model

import "time"

// Bar represents one daily OHLCV bar for a single instrument.
// Dates are calendar dates (midnight UTC, no timezone offset).
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an ordered sequence of daily bars, strictly ascending by date.
// Trading-day gaps (weekends, holidays) are expected and never filled.
// A Series is read-only once built — analytics functions must not mutate it.
type Series []Bar

// Closes returns the close prices aligned by index with the series.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// First returns the earliest bar. Panics on an empty series —
// callers are expected to have checked Len first.
func (s Series) First() Bar { return s[0] }

// Last returns the most recent bar.
func (s Series) Last() Bar { return s[len(s)-1] }

// ROIPercent is the return over the observed window:
// (last_close - first_close) / first_close * 100.
// Returns 0 for series shorter than 2 bars or a zero first close.
func (s Series) ROIPercent() float64 {
	if len(s) < 2 || s[0].Close == 0 {
		return 0
	}
	return (s[len(s)-1].Close - s[0].Close) / s[0].Close * 100
}

// Tail returns the trailing n bars (the whole series if it is shorter).
// The result shares backing storage with s; treat it as read-only.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
