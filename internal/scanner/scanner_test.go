package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"signalscan/internal/indicator"
	"signalscan/internal/model"
	"signalscan/internal/policy"
	"signalscan/internal/provider"
	"signalscan/internal/series"
)

// ─────────────────────────────── fixtures ───────────────────────────────

func mkSeries(closes []float64) model.Series {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.Bar{Date: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

func declineThenRise(down, up int) model.Series {
	closes := make([]float64, 0, down+up)
	price := 300.0
	for i := 0; i < down; i++ {
		price -= 0.5
		closes = append(closes, price)
	}
	for i := 0; i < up; i++ {
		price += 2.0
		closes = append(closes, price)
	}
	return mkSeries(closes)
}

// goldenSeries truncates a decline-then-rise series `tail` bars past its
// golden cross, so the cross falls inside the default 7-bar recency
// window.
func goldenSeries(t *testing.T, tail int) model.Series {
	t.Helper()
	s := declineThenRise(250, 150)
	events := indicator.DetectCrossovers(s)
	if len(events) != 1 {
		t.Fatalf("fixture: expected one cross, got %d", len(events))
	}
	idx := -1
	for i := range s {
		if s[i].Date.Equal(events[0].Date) {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatal("fixture: cross date not found in series")
	}
	return s[:idx+1+tail]
}

func newTestScanner(p Provider, cfg Config, sink ProgressSink, cache ResultCache) *Scanner {
	return New(p, cfg, sink, cache, nil)
}

// memCache is a trivial in-process ResultCache for tests.
type memCache struct {
	m map[string]*Report
}

func (c *memCache) Get(_ context.Context, key string, _ time.Duration) (*Report, bool) {
	rep, ok := c.m[key]
	return rep, ok
}

func (c *memCache) Put(_ context.Context, key string, rep *Report) error {
	c.m[key] = rep
	return nil
}

// ─────────────────────────────── scanning ───────────────────────────────

func TestScanSkipAndContinue(t *testing.T) {
	p := provider.NewMock()
	for _, sym := range []string{"AAA", "BBB", "CCC"} {
		p.Bars[sym] = goldenSeries(t, 2)
	}
	p.Errs["DOWN"] = errors.New("connection refused")
	p.Errs["MANGLED"] = &series.MissingFieldError{Field: "Close", Date: time.Now()}

	sc := newTestScanner(p, Config{}, nil, nil)
	rep, err := sc.Scan(context.Background(), []string{"AAA", "DOWN", "BBB", "MANGLED", "CCC"})
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if len(rep.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rep.Rows))
	}
	if rep.Processed != 5 || rep.Partial() {
		t.Errorf("expected full coverage, processed=%d partial=%v", rep.Processed, rep.Partial())
	}
	if rep.Skipped[SkipFetchError] != 1 {
		t.Errorf("fetch_error skips = %d, want 1", rep.Skipped[SkipFetchError])
	}
	if rep.Skipped[SkipBadData] != 1 {
		t.Errorf("bad_data skips = %d, want 1", rep.Skipped[SkipBadData])
	}
}

func TestScanShortHistoryAndStaleCross(t *testing.T) {
	p := provider.NewMock()
	p.Bars["SHORT"] = declineThenRise(50, 50)
	p.Bars["STALE"] = declineThenRise(250, 150) // cross ~150 bars back

	sc := newTestScanner(p, Config{}, nil, nil)
	rep, err := sc.Scan(context.Background(), []string{"SHORT", "STALE"})
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if len(rep.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rep.Rows))
	}
	if rep.Skipped[SkipShortHistory] != 1 {
		t.Errorf("short_history skips = %d, want 1", rep.Skipped[SkipShortHistory])
	}
	if rep.Skipped[SkipNoRecentCross] != 1 {
		t.Errorf("no_recent_cross skips = %d, want 1", rep.Skipped[SkipNoRecentCross])
	}
}

func TestScanAllFetchesFail(t *testing.T) {
	p := provider.NewMock()
	p.Errs["AAA"] = errors.New("timeout")
	p.Errs["BBB"] = errors.New("timeout")

	sc := newTestScanner(p, Config{}, nil, nil)
	_, err := sc.Scan(context.Background(), []string{"AAA", "BBB"})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestScanEmptyUniverse(t *testing.T) {
	sc := newTestScanner(provider.NewMock(), Config{}, nil, nil)
	rep, err := sc.Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if rep.TotalSymbols != 0 || len(rep.Rows) != 0 {
		t.Errorf("expected empty report, got %+v", rep)
	}
}

func TestScanCancelledBeforeStart(t *testing.T) {
	p := provider.NewMock()
	p.Bars["AAA"] = goldenSeries(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := newTestScanner(p, Config{}, nil, nil)
	rep, err := sc.Scan(ctx, []string{"AAA", "BBB"})
	if err != nil {
		t.Fatalf("cancelled scan must return partial report, got error: %v", err)
	}
	if rep.Processed != 0 || !rep.Partial() {
		t.Errorf("expected untouched partial report, processed=%d", rep.Processed)
	}
	if got := len(p.Calls()); got != 0 {
		t.Errorf("expected no fetches after cancel, got %d", got)
	}
}

func TestScanCancelMidway(t *testing.T) {
	p := provider.NewMock()
	for _, sym := range []string{"AAA", "BBB", "CCC", "DDD"} {
		p.Bars[sym] = goldenSeries(t, 2)
	}
	p.Delay = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	sink := SinkFunc(func(processed, total int) {
		if processed == 1 {
			cancel()
		}
	})

	sc := newTestScanner(p, Config{Concurrency: 1}, sink, nil)
	rep, err := sc.Scan(ctx, []string{"AAA", "BBB", "CCC", "DDD"})
	if err != nil {
		t.Fatalf("cancelled scan must return partial report, got error: %v", err)
	}
	if !rep.Partial() {
		t.Errorf("expected partial report, processed=%d of %d", rep.Processed, rep.TotalSymbols)
	}
	if rep.Processed < 1 {
		t.Errorf("expected at least one processed symbol, got %d", rep.Processed)
	}
}

func TestScanProgressMonotonic(t *testing.T) {
	p := provider.NewMock()
	symbols := []string{"AAA", "BBB", "CCC", "DDD", "EEE"}
	for _, sym := range symbols {
		p.Bars[sym] = goldenSeries(t, 2)
	}

	var seen []int
	sink := SinkFunc(func(processed, total int) {
		if total != len(symbols) {
			t.Errorf("sink total = %d, want %d", total, len(symbols))
		}
		seen = append(seen, processed)
	})

	sc := newTestScanner(p, Config{Concurrency: 3}, sink, nil)
	if _, err := sc.Scan(context.Background(), symbols); err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if len(seen) != len(symbols) {
		t.Fatalf("expected %d progress reports, got %d", len(symbols), len(seen))
	}
	for i, v := range seen {
		if v != i+1 {
			t.Fatalf("progress not monotonic: %v", seen)
		}
	}
}

func TestScanRowsSortedByChange(t *testing.T) {
	p := provider.NewMock()
	p.Bars["SLOW"] = goldenSeries(t, 1) // barely past the cross
	p.Bars["FAST"] = goldenSeries(t, 6) // five more rising bars

	sc := newTestScanner(p, Config{}, nil, nil)
	rep, err := sc.Scan(context.Background(), []string{"SLOW", "FAST"})
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rep.Rows))
	}
	if rep.Rows[0].Symbol != "FAST" {
		t.Errorf("expected FAST first (largest change), got %s", rep.Rows[0].Symbol)
	}
	if rep.Rows[0].ChangePct <= rep.Rows[1].ChangePct {
		t.Errorf("rows not sorted descending: %.2f then %.2f", rep.Rows[0].ChangePct, rep.Rows[1].ChangePct)
	}
}

func TestScanRowFields(t *testing.T) {
	p := provider.NewMock()
	s := goldenSeries(t, 3)
	p.Bars["RELIANCE.NS"] = s
	pe := 24.5
	p.Meta["RELIANCE.NS"] = model.Metadata{Symbol: "RELIANCE.NS", Name: "Reliance Industries", PERatio: &pe}

	sc := newTestScanner(p, Config{}, nil, nil)
	rep, err := sc.Scan(context.Background(), []string{"RELIANCE.NS"})
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if len(rep.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rep.Rows))
	}
	row := rep.Rows[0]
	if row.CrossKind != model.GoldenCross {
		t.Errorf("cross kind = %s, want golden", row.CrossKind)
	}
	if row.Name != "Reliance Industries" {
		t.Errorf("name = %q, want metadata display name", row.Name)
	}
	if row.PERatio == nil || *row.PERatio != 24.5 {
		t.Errorf("pe ratio not carried from metadata: %v", row.PERatio)
	}
	if row.CurrentPrice != s.Last().Close {
		t.Errorf("current price = %.2f, want %.2f", row.CurrentPrice, s.Last().Close)
	}
	if row.ChangePct <= 0 {
		t.Errorf("rising series past cross must show positive change, got %.2f", row.ChangePct)
	}
	// A steep post-decline rally pins RSI to overbought, so the policy
	// holds off despite the golden cross.
	if row.RSI < 70 {
		t.Errorf("fixture RSI = %.2f, expected overbought", row.RSI)
	}
	if row.Recommendation.Action != model.ActionHold || row.Recommendation.Reason != policy.ReasonOverbought {
		t.Errorf("unexpected recommendation: %+v", row.Recommendation)
	}
}

// ─────────────────────────────── caching ───────────────────────────────

func TestScanServesCachedReport(t *testing.T) {
	p := provider.NewMock()
	p.Bars["AAA"] = goldenSeries(t, 2)
	cache := &memCache{m: map[string]*Report{}}

	sc := newTestScanner(p, Config{}, nil, cache)
	first, err := sc.Scan(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	fetches := len(p.Calls())

	second, err := sc.Scan(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(p.Calls()) != fetches {
		t.Errorf("cached scan refetched: %d calls, want %d", len(p.Calls()), fetches)
	}
	if second != first {
		t.Errorf("expected the cached report instance to be served")
	}
}

func TestScanPartialReportNotCached(t *testing.T) {
	p := provider.NewMock()
	p.Bars["AAA"] = goldenSeries(t, 2)
	p.Delay = 5 * time.Millisecond
	cache := &memCache{m: map[string]*Report{}}

	ctx, cancel := context.WithCancel(context.Background())
	sink := SinkFunc(func(processed, total int) {
		if processed == 1 {
			cancel()
		}
	})
	sc := newTestScanner(p, Config{Concurrency: 1}, sink, cache)
	if _, err := sc.Scan(ctx, []string{"AAA", "BBB", "CCC"}); err != nil {
		t.Fatalf("scan returned error: %v", err)
	}
	if len(cache.m) != 0 {
		t.Errorf("partial report must not be cached, cache has %d entries", len(cache.m))
	}
}

func TestCacheKeyDistinguishesUniverses(t *testing.T) {
	a := cacheKey([]string{"AAA", "BBB"}, time.Hour)
	b := cacheKey([]string{"AAA", "CCC"}, time.Hour)
	c := cacheKey([]string{"AAA", "BBB"}, 2*time.Hour)
	if a == b || a == c {
		t.Errorf("cache keys collide: %s %s %s", a, b, c)
	}
}

// ─────────────────────────────── report ───────────────────────────────

func TestReportFilter(t *testing.T) {
	rep := &Report{
		Rows: []model.ScanRow{
			{Symbol: "A", CrossKind: model.GoldenCross, Recommendation: model.Recommendation{Action: model.ActionBuy}},
			{Symbol: "B", CrossKind: model.GoldenCross, Recommendation: model.Recommendation{Action: model.ActionHold}},
			{Symbol: "C", CrossKind: model.DeathCross, Recommendation: model.Recommendation{Action: model.ActionSell}},
		},
	}

	golden := rep.Filter(model.GoldenCross, "")
	if len(golden.Rows) != 2 {
		t.Errorf("golden filter: %d rows, want 2", len(golden.Rows))
	}
	buys := rep.Filter("", model.ActionBuy)
	if len(buys.Rows) != 1 || buys.Rows[0].Symbol != "A" {
		t.Errorf("buy filter returned wrong rows: %+v", buys.Rows)
	}
	both := rep.Filter(model.DeathCross, model.ActionSell)
	if len(both.Rows) != 1 || both.Rows[0].Symbol != "C" {
		t.Errorf("combined filter returned wrong rows: %+v", both.Rows)
	}
	if len(rep.Rows) != 3 {
		t.Errorf("filter mutated the source report: %d rows", len(rep.Rows))
	}
}
