package snapshot

import (
	"sync"

	"powerscope-server/internal/domain"
)

type SampleStore struct {
	Store[domain.PowerSample]
}

func NewSampleStore() *SampleStore {
	return &SampleStore{}
}

// History keeps the most recent power samples in a fixed-size ring.
type History struct {
	mu      sync.RWMutex
	samples []domain.PowerSample
	next    int
	full    bool
}

func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{samples: make([]domain.PowerSample, size)}
}

func (h *History) Append(s domain.PowerSample) {
	h.mu.Lock()
	h.samples[h.next] = s
	h.next = (h.next + 1) % len(h.samples)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()
}

// Samples returns the retained samples in insertion order, oldest first.
func (h *History) Samples() []domain.PowerSample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.full {
		out := make([]domain.PowerSample, h.next)
		copy(out, h.samples[:h.next])
		return out
	}
	out := make([]domain.PowerSample, 0, len(h.samples))
	out = append(out, h.samples[h.next:]...)
	out = append(out, h.samples[:h.next]...)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.samples)
	}
	return h.next
}
