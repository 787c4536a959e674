package service

import (
	"context"
	"sync"
	"time"

	"chatbe/pkg/logger"
)

// Sweeper periodically deletes login requests that expired without reaching
// a terminal state. The delete predicate lives in SQL, so overlapping runs
// are harmless.
type Sweeper struct {
	requests LoginRequestService
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewSweeper creates a new expiry sweeper
func NewSweeper(requests LoginRequestService, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{
		requests: requests,
		interval: interval,
		logger:   log,
	}
}

// Start begins the periodic sweep loop
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)

	s.logger.WithField("interval", s.interval.String()).Info("Login request sweeper started")
	return nil
}

// Stop halts the sweep loop, waiting for an in-flight sweep to finish
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()

	select {
	case <-done:
		s.logger.Info("Login request sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := s.requests.SweepExpired(sweepCtx); err != nil {
				s.logger.WithError(err).Error("Login request sweep failed")
			}
			cancel()
		}
	}
}
