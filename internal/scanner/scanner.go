// Package scanner runs the technical-signal analysis across a symbol
// universe: per-symbol fetch, recent-crossover filtering, indicator
// computation, and recommendation, with skip-and-continue fault
// containment.
//
// One symbol's failure never aborts a scan. Fetch errors, short
// histories, and malformed payloads all skip the symbol and move on;
// only a provider that fails for every single symbol surfaces as a hard
// error. Cancelling the context stops issuing new fetches and returns
// the partial report accumulated so far.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"signalscan/internal/indicator"
	"signalscan/internal/metrics"
	"signalscan/internal/model"
	"signalscan/internal/policy"
	"signalscan/internal/series"
)

// ErrProviderUnavailable is returned when every fetch in a scan failed —
// the provider itself is unreachable, not individual symbols.
var ErrProviderUnavailable = errors.New("scanner: provider unavailable")

// Provider supplies daily bar history and best-effort metadata for one
// symbol. Implementations must bound each call with a timeout; the
// scanner treats all failure modes identically (skip).
type Provider interface {
	FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) (model.Series, error)
	FetchMetadata(ctx context.Context, symbol string) (model.Metadata, error)
}

// ProgressSink receives a progress update after every symbol, success or
// skip. Processed counts are monotonically non-decreasing, also under
// concurrent scanning.
type ProgressSink interface {
	Report(processed, total int)
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(processed, total int)

func (f SinkFunc) Report(processed, total int) { f(processed, total) }

type nopSink struct{}

func (nopSink) Report(int, int) {}

// ResultCache stores finished scan reports keyed by universe for a
// bounded time window, so repeated scans over the same symbols within
// the TTL are served without refetching.
type ResultCache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (*Report, bool)
	Put(ctx context.Context, key string, rep *Report) error
}

// Skip reasons, used as metric labels and in scan summaries.
const (
	SkipFetchError    = "fetch_error"
	SkipBadData       = "bad_data"
	SkipShortHistory  = "short_history"
	SkipNoRecentCross = "no_recent_cross"
)

// Config holds the scan parameters.
type Config struct {
	Lookback      time.Duration // bar history per symbol, default 1 year
	RecencyWindow int           // trailing bars a cross must fall in, default 7
	MinHistory    int           // bars required before analysis, default 200
	Concurrency   int           // parallel symbol workers, default 1 (sequential reference behavior)
	CacheMaxAge   time.Duration // served-from-cache window, default 1 hour
}

func (c Config) withDefaults() Config {
	if c.Lookback <= 0 {
		c.Lookback = 365 * 24 * time.Hour
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = 7
	}
	if c.MinHistory <= 0 {
		c.MinHistory = indicator.SlowWindow
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.CacheMaxAge <= 0 {
		c.CacheMaxAge = time.Hour
	}
	return c
}

// Scanner orchestrates indicator analysis over a symbol universe.
type Scanner struct {
	provider Provider
	cfg      Config
	sink     ProgressSink
	cache    ResultCache
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New creates a Scanner. sink, cache, and m may be nil; a nil sink
// discards progress and a nil cache disables report caching.
func New(provider Provider, cfg Config, sink ProgressSink, cache ResultCache, m *metrics.Metrics) *Scanner {
	if sink == nil {
		sink = nopSink{}
	}
	return &Scanner{
		provider: provider,
		cfg:      cfg.withDefaults(),
		sink:     sink,
		cache:    cache,
		metrics:  m,
		log:      slog.Default().With(slog.String("component", "scanner")),
	}
}

// Scan analyzes every symbol and returns the aggregated report, rows
// sorted descending by % change since cross. A cancelled context yields
// the partial report with a nil error. ErrProviderUnavailable is
// returned only when every attempted fetch failed.
func (sc *Scanner) Scan(ctx context.Context, symbols []string) (*Report, error) {
	total := len(symbols)
	key := cacheKey(symbols, sc.cfg.Lookback)

	if sc.cache != nil {
		if rep, ok := sc.cache.Get(ctx, key, sc.cfg.CacheMaxAge); ok {
			if sc.metrics != nil {
				sc.metrics.CacheHits.Inc()
			}
			sc.log.Info("serving cached report", slog.Int("rows", len(rep.Rows)))
			return rep, nil
		}
		if sc.metrics != nil {
			sc.metrics.CacheMisses.Inc()
		}
	}

	if sc.metrics != nil {
		sc.metrics.ScansTotal.Inc()
	}

	start := time.Now()
	var (
		processed    atomic.Int64
		fetchFailed  atomic.Int64
		mu           sync.Mutex
		rows         []model.ScanRow
		skips        = map[string]int{}
		wg           sync.WaitGroup
		sem          = make(chan struct{}, sc.cfg.Concurrency)
	)

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break // cancelled: stop issuing new fetches, keep partial results
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			row, skip := sc.analyzeSymbol(ctx, symbol)

			if skip == SkipFetchError {
				fetchFailed.Add(1)
			}

			// Progress is reported under the same lock as result
			// aggregation so sink deliveries stay monotonic even with
			// concurrent workers.
			mu.Lock()
			if row != nil {
				rows = append(rows, *row)
			} else {
				skips[skip]++
			}
			done := processed.Add(1)
			sc.sink.Report(int(done), total)
			mu.Unlock()
			if sc.metrics != nil {
				sc.metrics.SymbolsProcessed.Inc()
				sc.metrics.ScanProgress.Set(float64(done) / float64(max(total, 1)))
				if skip != "" {
					sc.metrics.SymbolsSkipped.WithLabelValues(skip).Inc()
				}
			}
		}(symbol)
	}
	wg.Wait()

	attempted := int(processed.Load())
	if total > 0 && attempted == total && int(fetchFailed.Load()) == total {
		return nil, fmt.Errorf("%w: all %d fetches failed", ErrProviderUnavailable, total)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ChangePct > rows[j].ChangePct })

	rep := &Report{
		GeneratedAt:  time.Now().UTC(),
		TotalSymbols: total,
		Processed:    attempted,
		Skipped:      skips,
		Rows:         rows,
	}

	if sc.metrics != nil {
		sc.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}
	sc.log.Info("scan finished",
		slog.Int("total", total),
		slog.Int("processed", attempted),
		slog.Int("matched", len(rows)),
		slog.Duration("took", time.Since(start)),
	)

	// Only complete scans are cacheable; a cancelled partial report
	// must not mask a later full run.
	if sc.cache != nil && attempted == total {
		if err := sc.cache.Put(ctx, key, rep); err != nil {
			sc.log.Warn("report cache write failed", slog.String("err", err.Error()))
		}
	}
	return rep, nil
}

// analyzeSymbol runs the full per-symbol pipeline. Returns the scan row,
// or a nil row plus the skip reason.
func (sc *Scanner) analyzeSymbol(ctx context.Context, symbol string) (*model.ScanRow, string) {
	bars, err := sc.provider.FetchDailyBars(ctx, symbol, sc.cfg.Lookback)
	if err != nil {
		var mfe *series.MissingFieldError
		if errors.As(err, &mfe) {
			sc.log.Warn("malformed payload", slog.String("symbol", symbol), slog.String("err", err.Error()))
			return nil, SkipBadData
		}
		if sc.metrics != nil {
			sc.metrics.FetchFailures.Inc()
		}
		sc.log.Debug("fetch failed", slog.String("symbol", symbol), slog.String("err", err.Error()))
		return nil, SkipFetchError
	}
	if len(bars) < sc.cfg.MinHistory {
		return nil, SkipShortHistory
	}

	cross, ok := indicator.RecentCross(bars, sc.cfg.RecencyWindow)
	if !ok {
		return nil, SkipNoRecentCross
	}

	closes := bars.Closes()
	rsi, ok := indicator.RSI(closes, indicator.DefaultRSIPeriod)
	if !ok {
		rsi = policy.NeutralRSI
	}
	roi := bars.ROIPercent()
	current := bars.Last().Close

	changePct := 0.0
	if cross.Close != 0 {
		changePct = (current - cross.Close) / cross.Close * 100
	}

	row := &model.ScanRow{
		Symbol:         symbol,
		Name:           symbol,
		CrossKind:      cross.Kind,
		CrossDate:      cross.Date,
		CrossPrice:     cross.Close,
		CurrentPrice:   current,
		ChangePct:      changePct,
		RSI:            rsi,
		ROIPct:         roi,
		Divergence:     indicator.DetectDivergence(bars),
		Recommendation: policy.Recommend(rsi, roi, cross.Kind),
	}

	// Metadata is best-effort: absence renders as N/A, never blocks.
	if md, err := sc.provider.FetchMetadata(ctx, symbol); err == nil {
		row.Name = md.DisplayName()
		row.PERatio = md.PERatio
	}
	return row, ""
}

// cacheKey derives a stable key from the universe and lookback so a
// different symbol list or window never collides.
func cacheKey(symbols []string, lookback time.Duration) string {
	h := fnv.New64a()
	h.Write([]byte(strings.Join(symbols, ",")))
	h.Write([]byte(lookback.String()))
	return fmt.Sprintf("signalscan:report:%x", h.Sum64())
}
