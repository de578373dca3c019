package registry

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, retention time.Duration) (*SweepResult, error)
}

// Sweeper runs SweepOrphans right after Start and then every interval.
// Runs never overlap, including runs triggered through Sweep.
type Sweeper struct {
	target    OrphanSweeper
	interval  time.Duration
	retention time.Duration
	metrics   *Metrics
	logger    logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(target OrphanSweeper, interval, retention time.Duration, metrics *Metrics, logger logging.Logger) *Sweeper {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Sweeper{
		target:    target,
		interval:  interval,
		retention: retention,
		metrics:   metrics,
		logger:    logger.With("module", "sweeper"),
	}
}

func (s *Sweeper) Retention() time.Duration { return s.retention }

func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)

	s.logger.Info(ctx, "sweeper started", "interval", s.interval.String(), "retention", s.retention.String())
}

// Stop cancels the loop and waits for a run in progress to return.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.logger.Info(context.Background(), "sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	_, _ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps with the configured retention.
func (s *Sweeper) RunOnce(ctx context.Context) (*SweepResult, error) {
	return s.Sweep(ctx, s.retention)
}

// Sweep sweeps with an explicit retention, e.g. for an operator request.
func (s *Sweeper) Sweep(ctx context.Context, retention time.Duration) (*SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, err := s.target.SweepOrphans(ctx, retention)
	s.metrics.observe(res, err, time.Since(start).Seconds())

	switch {
	case err != nil && res != nil:
		// the transports drop res on error; keep what was already purged
		s.logger.Error(ctx, "orphan sweep interrupted",
			"error", err,
			"candidates", res.Candidates,
			"deleted", res.Deleted,
			"skipped", res.Skipped,
			"record_failures", res.RecordFailures,
			"storage_failures", res.StorageFailures,
		)
	case err != nil:
		s.logger.Error(ctx, "orphan sweep failed", "error", err)
	}
	return res, err
}
