package power

import (
	"context"
	"sync"
	"testing"
	"time"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
)

type sampleCollector struct {
	mu      sync.Mutex
	samples []domain.PowerSample
}

func (c *sampleCollector) sink(s domain.PowerSample) {
	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

func (c *sampleCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

func (c *sampleCollector) all() []domain.PowerSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.PowerSample, len(c.samples))
	copy(out, c.samples)
	return out
}

func numberedSampler() func(context.Context) domain.PowerSample {
	n := 0.0
	return func(context.Context) domain.PowerSample {
		n++
		return domain.PowerSample{Timestamp: time.Now(), TotalPowerWatts: n}
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSchedulerDeliversSamplesInOrder(t *testing.T) {
	c := &sampleCollector{}
	s := NewScheduler(5*time.Millisecond, logger.Discard(), numberedSampler(), c.sink)

	s.Start()
	waitFor(t, time.Second, func() bool { return c.count() >= 3 })
	s.Stop()

	samples := c.all()
	for i := 1; i < len(samples); i++ {
		if samples[i].TotalPowerWatts != samples[i-1].TotalPowerWatts+1 {
			t.Fatalf("samples out of order at %d: %v then %v",
				i, samples[i-1].TotalPowerWatts, samples[i].TotalPowerWatts)
		}
	}
}

func TestSchedulerStartWhileRunningIsNoop(t *testing.T) {
	c := &sampleCollector{}
	s := NewScheduler(5*time.Millisecond, logger.Discard(), numberedSampler(), c.sink)

	s.Start()
	s.Start()
	waitFor(t, time.Second, func() bool { return c.count() >= 2 })
	s.Stop()

	// A double Start must not double-deliver: the sequence stays strictly
	// increasing by one.
	samples := c.all()
	for i := 1; i < len(samples); i++ {
		if samples[i].TotalPowerWatts != samples[i-1].TotalPowerWatts+1 {
			t.Fatalf("duplicate polling loop detected at sample %d", i)
		}
	}
}

func TestSchedulerStopIsIdempotentAndJoins(t *testing.T) {
	c := &sampleCollector{}
	s := NewScheduler(5*time.Millisecond, logger.Discard(), numberedSampler(), c.sink)

	s.Start()
	waitFor(t, time.Second, func() bool { return c.count() >= 1 })

	s.Stop()
	s.Stop()

	n := c.count()
	time.Sleep(25 * time.Millisecond)
	if c.count() != n {
		t.Fatal("loop still delivering after Stop returned")
	}
}

func TestSchedulerSurvivesPanickingConsumer(t *testing.T) {
	c := &sampleCollector{}
	failed := false
	sink := func(s domain.PowerSample) {
		if !failed {
			failed = true
			panic("consumer bug")
		}
		c.sink(s)
	}

	s := NewScheduler(5*time.Millisecond, logger.Discard(), numberedSampler(), sink)
	s.backoff = time.Millisecond

	s.Start()
	waitFor(t, time.Second, func() bool { return c.count() >= 2 })
	s.Stop()
}

func TestSchedulerRestartAfterStop(t *testing.T) {
	c := &sampleCollector{}
	s := NewScheduler(5*time.Millisecond, logger.Discard(), numberedSampler(), c.sink)

	s.Start()
	waitFor(t, time.Second, func() bool { return c.count() >= 1 })
	s.Stop()

	n := c.count()
	s.Start()
	waitFor(t, time.Second, func() bool { return c.count() > n })
	s.Stop()
}
