// Package scheduler runs universe scans on a cron cadence, after the
// market close of each trading day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"signalscan/internal/logger"
	"signalscan/internal/markethours"
	"signalscan/internal/metrics"
	"signalscan/internal/notification"
	"signalscan/internal/scanner"
	"signalscan/internal/store/sqlite"
)

// DefaultSpec fires at 16:00 IST Mon-Fri, after the 15:30 close.
const DefaultSpec = "0 0 16 * * 1-5"

// ErrScanInProgress is returned when a trigger overlaps a running scan.
var ErrScanInProgress = fmt.Errorf("scheduler: scan already in progress")

// Scheduler owns the cron loop and the post-scan fan-out: persistence,
// notification, and health bookkeeping. Store, broadcaster, and health
// may all be nil.
type Scheduler struct {
	cron        *cron.Cron
	scanner     *scanner.Scanner
	symbols     []string
	store       *sqlite.Store
	broadcaster *notification.Broadcaster
	health      *metrics.HealthStatus
	log         *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler over the given scan universe.
func New(sc *scanner.Scanner, symbols []string, store *sqlite.Store, b *notification.Broadcaster, health *metrics.HealthStatus) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds(), cron.WithLocation(markethours.IST)),
		scanner:     sc,
		symbols:     symbols,
		store:       store,
		broadcaster: b,
		health:      health,
		log:         slog.Default().With(slog.String("component", "scheduler")),
	}
}

// Register adds the scheduled scan. An empty spec uses DefaultSpec.
func (s *Scheduler) Register(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.TriggerScan(ctx, "scheduled"); err != nil && err != ErrScanInProgress {
			s.log.Error("scheduled scan failed", slog.String("err", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: register scan: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// TriggerScan runs one scan now. Scheduled triggers are skipped on
// holidays and weekends; manual triggers always run. Only one scan may
// be in flight at a time.
func (s *Scheduler) TriggerScan(ctx context.Context, trigger string) (*scanner.Report, error) {
	if trigger == "scheduled" && !markethours.IsTradingDay(time.Now()) {
		s.log.Info("skipping scheduled scan on non-trading day")
		return nil, nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := logger.GenerateRunID(trigger, time.Now())
	ctx = logger.WithRunID(ctx, runID)
	s.log.Info("scan starting",
		slog.String("run_id", runID),
		slog.Int("universe", len(s.symbols)),
	)

	rep, err := s.scanner.Scan(ctx, s.symbols)
	if s.health != nil {
		s.health.SetProviderOK(err == nil)
	}
	if err != nil {
		return nil, err
	}
	if s.health != nil {
		s.health.SetLastScanAt(rep.GeneratedAt)
	}

	if s.store != nil && !rep.Partial() {
		if id, err := s.store.SaveReport(ctx, rep); err != nil {
			s.log.Error("persist scan failed", slog.String("err", err.Error()))
		} else {
			s.log.Info("scan persisted", slog.Int64("scan_id", id))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ctx, notification.Summarize(rep))
	}
	return rep, nil
}
