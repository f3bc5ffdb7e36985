// Package report renders scan results for the outer surfaces: CSV
// export and the chart payload consumed by the UI.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"signalscan/internal/model"
)

var csvHeader = []string{
	"Symbol",
	"Company Name",
	"Cross Type",
	"Cross Date",
	"Price at Cross",
	"Current Price",
	"Price Change %",
	"RSI",
	"P/E Ratio",
	"ROI %",
	"Divergence",
	"Recommendation",
	"Reason",
}

// WriteCSV renders the rows as CSV. Prices carry the rupee prefix,
// percentages an explicit sign, and a missing P/E renders as N/A.
func WriteCSV(w io.Writer, rows []model.ScanRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	for _, r := range rows {
		pe := "N/A"
		if r.PERatio != nil {
			pe = fmt.Sprintf("%.2f", *r.PERatio)
		}
		rec := []string{
			r.Symbol,
			r.Name,
			string(r.CrossKind),
			r.CrossDate.Format("2006-01-02"),
			fmt.Sprintf("₹%.2f", r.CrossPrice),
			fmt.Sprintf("₹%.2f", r.CurrentPrice),
			fmt.Sprintf("%+.2f%%", r.ChangePct),
			fmt.Sprintf("%.2f", r.RSI),
			pe,
			fmt.Sprintf("%+.2f%%", r.ROIPct),
			string(r.Divergence),
			string(r.Recommendation.Action),
			r.Recommendation.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("report: write row %s: %w", r.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
