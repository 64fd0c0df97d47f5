package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
)

const (
	DefaultSweepInterval = time.Hour
	maxSweepTimeout      = 30 * time.Second
)

// HousekeepingService periodically deletes expired sessions. Resolution
// already rejects them lazily; this only stops the backend growing.
type HousekeepingService struct {
	Sessions *SessionService
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Interval time.Duration

	started atomic.Bool
	once    sync.Once
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval falls back to DefaultSweepInterval.
func NewHousekeepingService(sessions *SessionService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &HousekeepingService{
		Sessions: sessions,
		Logger:   logger,
		Metrics:  sessions.Metrics,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start sweeps once, then every Interval until Stop. Only the first call
// starts the worker.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("session sweeper started", "interval", s.Interval)
}

// Stop waits for an in-flight sweep. It is safe to call more than once, and
// before Start, after which Start does nothing.
func (s *HousekeepingService) Stop() {
	s.once.Do(func() {
		if s.started.CompareAndSwap(false, true) {
			close(s.doneCh)
		}
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("session sweeper stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), s.sweepTimeout())
		_, _ = s.Sweep(ctx)
		cancel()

		select {
		case <-ticker.C:
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweepTimeout() time.Duration {
	return min(s.Interval, maxSweepTimeout)
}

// Sweep deletes expired sessions now and reports how many went.
func (s *HousekeepingService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.Sessions.Purge(ctx)
	if err != nil {
		s.Metrics.Sweep(false)
		s.Logger.Error("expired session sweep failed", "err", err)
		return 0, err
	}
	s.Metrics.Sweep(true)

	level := slog.LevelDebug
	if n > 0 {
		level = slog.LevelInfo
	}
	s.Logger.Log(ctx, level, "expired sessions swept", "deleted", n, "took", time.Since(start))
	return n, nil
}
