package scanner

import (
	"time"

	"signalscan/internal/model"
)

// Report is the aggregated result of one universe scan. Rows are sorted
// descending by % change since cross. Rows may be empty — a scan always
// produces a report rather than failing.
type Report struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	TotalSymbols int             `json:"total_symbols"`
	Processed    int             `json:"processed"`
	Skipped      map[string]int  `json:"skipped,omitempty"` // skip reason → count
	Rows         []model.ScanRow `json:"rows"`
}

// Partial reports whether the scan was cancelled before covering the
// whole universe.
func (r *Report) Partial() bool { return r.Processed < r.TotalSymbols }

// Filter returns a copy of the report keeping only rows matching the
// given cross kind and action; an empty value matches everything. The
// receiver is left untouched so it can be re-filtered.
func (r *Report) Filter(cross model.CrossKind, action model.Action) *Report {
	out := *r
	out.Rows = make([]model.ScanRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		if cross != "" && row.CrossKind != cross {
			continue
		}
		if action != "" && row.Recommendation.Action != action {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return &out
}
