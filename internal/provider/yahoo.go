package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"signalscan/internal/model"
	"signalscan/internal/series"
)

// Yahoo fetches daily bars and quote metadata from Yahoo Finance.
// NSE symbols carry the ".NS" suffix (e.g. "RELIANCE.NS").
type Yahoo struct{}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo() *Yahoo { return &Yahoo{} }

// FetchDailyBars returns the trailing daily bar series for the symbol.
// The finance-go chart call has no context support, so it runs in a
// goroutine and the context deadline is enforced on our side; an
// abandoned call finishes in the background and is discarded.
func (y *Yahoo) FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) (model.Series, error) {
	type result struct {
		bars model.Series
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		bars, err := fetchChart(symbol, lookback)
		ch <- result{bars, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("yahoo: fetch %s: %w", symbol, ctx.Err())
	case r := <-ch:
		return r.bars, r.err
	}
}

func fetchChart(symbol string, lookback time.Duration) (model.Series, error) {
	end := time.Now()
	start := end.Add(-lookback)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var rows []series.RawRow
	for iter.Next() {
		bar := iter.Bar()
		rows = append(rows, series.RawRow{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   fptr(bar.Open.InexactFloat64()),
			High:   fptr(bar.High.InexactFloat64()),
			Low:    fptr(bar.Low.InexactFloat64()),
			Close:  fptr(bar.Close.InexactFloat64()),
			Volume: fptr(float64(bar.Volume)),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo: chart %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, ErrNoData)
	}
	return series.Build(rows)
}

// FetchMetadata returns best-effort name and P/E for the symbol.
func (y *Yahoo) FetchMetadata(ctx context.Context, symbol string) (model.Metadata, error) {
	type result struct {
		md  model.Metadata
		err error
	}
	ch := make(chan result, 1)

	go func() {
		eq, err := equity.Get(symbol)
		if err != nil {
			ch <- result{err: fmt.Errorf("yahoo: quote %s: %w", symbol, err)}
			return
		}
		md := model.Metadata{Symbol: symbol, Name: eq.ShortName}
		if eq.TrailingPE != 0 {
			md.PERatio = fptr(eq.TrailingPE)
		}
		ch <- result{md: md}
	}()

	select {
	case <-ctx.Done():
		return model.Metadata{}, fmt.Errorf("yahoo: metadata %s: %w", symbol, ctx.Err())
	case r := <-ch:
		return r.md, r.err
	}
}
