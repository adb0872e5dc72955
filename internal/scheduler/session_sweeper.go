package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/metrics"
)

const (
	// DefaultSweepInterval is used when no interval is configured
	DefaultSweepInterval = 5 * time.Minute
)

// ExpiringStore is a session store that needs explicit eviction.
type ExpiringStore interface {
	SweepExpired(now time.Time) int
}

// SessionSweeper periodically drops expired sessions from memory
type SessionSweeper struct {
	store    ExpiringStore
	metrics  *metrics.Metrics
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(
	store ExpiringStore,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &SessionSweeper{
		store:    store,
		metrics:  m,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (s *SessionSweeper) Start(ctx context.Context) error {
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (s *SessionSweeper) Stop() {
	close(s.stopCh)
}

// Sweep removes expired sessions and returns how many were dropped
func (s *SessionSweeper) Sweep() int {
	removed := s.store.SweepExpired(s.now())
	s.metrics.ObserveSweep(removed)

	if removed > 0 {
		s.logger.Info("expired sessions removed",
			logger.Int("removed", removed))
	} else {
		s.logger.Debug("no expired sessions")
	}

	return removed
}
