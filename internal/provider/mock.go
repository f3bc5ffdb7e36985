package provider

import (
	"context"
	"sync"
	"time"

	"signalscan/internal/model"
)

// Mock is a canned provider for tests. Populate Bars/Meta per symbol;
// symbols listed in Errs fail their fetch with the given error.
type Mock struct {
	mu    sync.Mutex
	Bars  map[string]model.Series
	Meta  map[string]model.Metadata
	Errs  map[string]error
	Delay time.Duration // optional per-fetch latency

	calls []string
}

// NewMock returns an empty mock; add data directly to the maps.
func NewMock() *Mock {
	return &Mock{
		Bars: make(map[string]model.Series),
		Meta: make(map[string]model.Metadata),
		Errs: make(map[string]error),
	}
}

func (m *Mock) FetchDailyBars(ctx context.Context, symbol string, _ time.Duration) (model.Series, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	s, ok := m.Bars[symbol]
	if !ok {
		return nil, ErrNoData
	}
	return s, nil
}

func (m *Mock) FetchMetadata(_ context.Context, symbol string) (model.Metadata, error) {
	if meta, ok := m.Meta[symbol]; ok {
		return meta, nil
	}
	return model.Metadata{Symbol: symbol}, nil
}

// Calls returns the symbols fetched so far, in call order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
