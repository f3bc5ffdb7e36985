package memory

import (
	"context"
	"testing"
	"time"

	"signalscan/internal/scanner"
)

func TestCacheHitWithinMaxAge(t *testing.T) {
	c := New()
	rep := &scanner.Report{TotalSymbols: 3}

	if err := c.Put(context.Background(), "k", rep); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := c.Get(context.Background(), "k", time.Hour)
	if !ok || got != rep {
		t.Fatalf("expected cached report, ok=%v", ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New()
	base := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Put(context.Background(), "k", &scanner.Report{})

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, ok := c.Get(context.Background(), "k", time.Hour); ok {
		t.Fatal("stale entry served")
	}
	if _, ok := c.Get(context.Background(), "k", 3*time.Hour); !ok {
		t.Fatal("entry within a wider maxAge must still be served")
	}
}

func TestCacheMiss(t *testing.T) {
	c := New()
	if _, ok := c.Get(context.Background(), "absent", time.Hour); ok {
		t.Fatal("expected miss")
	}
}
