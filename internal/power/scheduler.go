package power

import (
	"context"
	"sync"
	"time"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
)

const (
	tickBackoff = time.Second
	stopTimeout = time.Second
)

// Scheduler drives the estimator on a background goroutine at a fixed
// interval and hands every sample to a single consumer, synchronously and
// in strict poll order. A bad tick is logged and followed by a short
// back-off; it never terminates the loop.
type Scheduler struct {
	interval time.Duration
	backoff  time.Duration
	log      logger.Logger
	sample   func(context.Context) domain.PowerSample
	sink     func(domain.PowerSample)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(
	interval time.Duration,
	log logger.Logger,
	sample func(context.Context) domain.PowerSample,
	sink func(domain.PowerSample),
) *Scheduler {
	return &Scheduler{
		interval: interval,
		backoff:  tickBackoff,
		log:      log,
		sample:   sample,
		sink:     sink,
	}
}

// Start launches the polling loop. Calling it while already running is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.loop(s.stopCh, s.doneCh)
	s.log.Info("polling scheduler started", "interval", s.interval)
}

// Stop requests cooperative termination and waits, bounded, for the loop
// to exit. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.log.Info("polling scheduler stopped")
	case <-time.After(stopTimeout):
		s.log.Warn("polling scheduler did not stop in time")
	}
}

func (s *Scheduler) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(stopCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(stopCh)
		}
	}
}

func (s *Scheduler) tick(stopCh chan struct{}) {
	ok := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("poll tick panicked", "panic", r)
				ok = false
			}
		}()

		// The deadline bounds sensor refreshes and vendor-tool calls so a
		// hung external process cannot stall the loop.
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()

		s.sink(s.sample(ctx))
		return true
	}()

	if !ok {
		select {
		case <-stopCh:
		case <-time.After(s.backoff):
		}
	}
}
