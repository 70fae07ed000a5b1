// Package scheduler runs the periodic matching cycle: one pass that pairs
// waiting participants, then one pass that dissolves stale matches.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/parleyhq/parley-api/internal/domain"
)

// MatchRunner is the slice of the match service the scheduler drives.
type MatchRunner interface {
	RunBatchMatching(ctx context.Context) (int, error)
	ExpireStaleMatches(ctx context.Context) (int, error)
}

// BatchScheduler triggers a matching cycle at a fixed interval. A cycle is
// two sequential phases: batch matching first so fresh pairs are committed,
// then expiry so abandoned ones free their participants for the next tick.
// Cycles never overlap; a panic in one cycle is logged and the loop keeps
// ticking.
type BatchScheduler struct {
	runner   MatchRunner
	interval time.Duration
	logger   *slog.Logger

	trigger  chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewBatchScheduler creates a scheduler that fires every interval.
// If logger is nil, a default logger will be used.
func NewBatchScheduler(runner MatchRunner, interval time.Duration, logger *slog.Logger) (*BatchScheduler, error) {
	if runner == nil {
		return nil, domain.NewValidationError("runner", "cannot be nil", domain.ErrValidation)
	}
	if interval <= 0 {
		return nil, domain.NewValidationError("interval", "must be positive", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &BatchScheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.With(slog.String("component", "batch_scheduler")),
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the scheduling loop. The first cycle runs immediately so
// a restart never leaves waiting participants unpaired for a full interval;
// later cycles follow the ticker. Start is a no-op when called twice.
func (s *BatchScheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)

	s.logger.Info("batch scheduler started",
		slog.Duration("interval", s.interval))
}

// Stop halts the loop and waits for any in-flight cycle to finish.
func (s *BatchScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.startMu.Lock()
		started := s.started
		s.startMu.Unlock()
		if !started {
			return
		}

		s.cancel()
		<-s.done
		s.logger.Info("batch scheduler stopped")
	})
}

// TriggerNow requests an immediate cycle without waiting for the next tick.
// The request is dropped if a trigger is already pending.
func (s *BatchScheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *BatchScheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep once at boot before settling into the interval.
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		case <-s.trigger:
			s.runCycle(ctx)
		}
	}
}

// runCycle executes one match-then-expire pass. Failures in one phase do
// not block the other; both are reported and the loop moves on.
func (s *BatchScheduler) runCycle(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("matching cycle panicked",
				slog.Any("panic", p))
		}
	}()

	start := time.Now()

	pairs, err := s.runner.RunBatchMatching(ctx)
	if err != nil {
		s.logger.Error("batch matching failed",
			slog.String("error", err.Error()))
	}

	dissolved, err := s.runner.ExpireStaleMatches(ctx)
	if err != nil {
		s.logger.Error("match expiry failed",
			slog.String("error", err.Error()))
	}

	s.logger.Info("matching cycle complete",
		slog.Int("pairs", pairs),
		slog.Int("dissolved", dissolved),
		slog.Duration("elapsed", time.Since(start)))
}
