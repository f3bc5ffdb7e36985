package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"signalscan/internal/model"
)

func TestWriteCSV(t *testing.T) {
	pe := 18.4
	rows := []model.ScanRow{
		{
			Symbol:       "TCS.NS",
			Name:         "Tata Consultancy Services",
			CrossKind:    model.GoldenCross,
			CrossDate:    time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
			CrossPrice:   3800,
			CurrentPrice: 3971.5,
			ChangePct:    4.5132,
			RSI:          63.21,
			PERatio:      &pe,
			ROIPct:       12.8,
			Divergence:   model.DivergenceNone,
			Recommendation: model.Recommendation{
				Action: model.ActionBuy,
				Reason: "Strong uptrend with good momentum",
			},
		},
		{
			Symbol:       "IDEA.NS",
			Name:         "Vodafone Idea",
			CrossKind:    model.DeathCross,
			CrossDate:    time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC),
			CrossPrice:   14,
			CurrentPrice: 12.6,
			ChangePct:    -10,
			RSI:          27.4,
			ROIPct:       -22.15,
			Divergence:   model.BullishDivergence,
			Recommendation: model.Recommendation{
				Action: model.ActionSell,
				Reason: "Oversold - Strong downtrend",
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if got := strings.Join(records[0], ","); !strings.HasPrefix(got, "Symbol,Company Name,Cross Type") {
		t.Errorf("unexpected header: %s", got)
	}

	first := records[1]
	if first[4] != "₹3800.00" {
		t.Errorf("price at cross = %q, want ₹3800.00", first[4])
	}
	if first[6] != "+4.51%" {
		t.Errorf("change = %q, want +4.51%%", first[6])
	}
	if first[8] != "18.40" {
		t.Errorf("pe = %q, want 18.40", first[8])
	}

	second := records[2]
	if second[6] != "-10.00%" {
		t.Errorf("negative change = %q, want -10.00%%", second[6])
	}
	if second[8] != "N/A" {
		t.Errorf("missing pe = %q, want N/A", second[8])
	}
	if second[12] != "Oversold - Strong downtrend" {
		t.Errorf("reason = %q", second[12])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(records) != 1 {
		t.Fatalf("expected header only, got %d records (err %v)", len(records), err)
	}
}
