// Package series normalizes raw fetched OHLCV tables into immutable,
// date-ordered model.Series values.
//
// No I/O happens here: the raw rows come from a market-data provider and
// the output is what every analytics function consumes. Normalization
// strips timezone offsets, validates that all five OHLCV fields are
// present, coerces volume to an integer, drops fully-empty rows, and
// sorts ascending by date with duplicates removed.
package series

import (
	"fmt"
	"sort"
	"time"

	"signalscan/internal/model"
)

// RawRow is one row of an externally-fetched bar table before
// normalization. Fields are pointers so an upstream gap (e.g. a null
// cell in the provider payload) is distinguishable from zero.
type RawRow struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// MissingFieldError reports a row that has some but not all of the
// mandatory OHLCV fields — an upstream contract violation. It aborts
// processing of the offending symbol only, never the whole batch.
type MissingFieldError struct {
	Field string
	Date  time.Time
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("series: missing required field %q on %s", e.Field, e.Date.Format("2006-01-02"))
}

// Build normalizes raw rows into an immutable ascending Series.
//
// Rows with every price and volume field absent are dropped silently.
// A row missing only some fields yields a *MissingFieldError naming the
// first absent field. Duplicate dates keep the later occurrence.
func Build(rows []RawRow) (model.Series, error) {
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		if r.Open == nil && r.High == nil && r.Low == nil && r.Close == nil && r.Volume == nil {
			continue
		}
		if err := checkFields(r); err != nil {
			return nil, err
		}
		bars = append(bars, model.Bar{
			Date:   stripTZ(r.Date),
			Open:   *r.Open,
			High:   *r.High,
			Low:    *r.Low,
			Close:  *r.Close,
			Volume: int64(*r.Volume),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	// Dedupe by date, keeping the later row (stable sort preserves
	// arrival order among equal dates).
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}

	return model.Series(out), nil
}

func checkFields(r RawRow) error {
	switch {
	case r.Open == nil:
		return &MissingFieldError{Field: "Open", Date: r.Date}
	case r.High == nil:
		return &MissingFieldError{Field: "High", Date: r.Date}
	case r.Low == nil:
		return &MissingFieldError{Field: "Low", Date: r.Date}
	case r.Close == nil:
		return &MissingFieldError{Field: "Close", Date: r.Date}
	case r.Volume == nil:
		return &MissingFieldError{Field: "Volume", Date: r.Date}
	}
	return nil
}

// stripTZ discards any timezone offset, keeping the calendar date as
// reported by the provider.
func stripTZ(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
