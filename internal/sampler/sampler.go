// Package sampler decides when the monitor should take its next capture.
// Sampling is purely time-triggered: the foreground window never influences
// the decision.
package sampler

import (
	"fmt"
	"sync"
	"time"
)

// Capture intervals for the two recognized modes.
const (
	NormalInterval = 600 * time.Second
	TestInterval   = 10 * time.Second
)

// Sampler fires at a fixed interval. The zero last-capture time guarantees the
// first check after construction (or Reset) always fires, so the first
// observation of a run is always captured.
type Sampler struct {
	mu          sync.Mutex
	interval    time.Duration
	lastCapture time.Time
}

// New returns a Sampler firing every interval.
func New(interval time.Duration) *Sampler {
	return &Sampler{interval: interval}
}

// ShouldCapture reports whether a capture is due at now, advancing the
// last-capture time when it is. The returned string explains the decision.
func (s *Sampler) ShouldCapture(now time.Time) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastCapture) >= s.interval {
		s.lastCapture = now
		return true, "interval elapsed"
	}

	remaining := s.interval - now.Sub(s.lastCapture)
	return false, fmt.Sprintf("%ds until next capture", int(remaining.Seconds()))
}

// Reset zeroes the last-capture time, forcing the next check to fire.
func (s *Sampler) Reset() {
	s.mu.Lock()
	s.lastCapture = time.Time{}
	s.mu.Unlock()
}

// SetInterval swaps the capture interval without disturbing the last-capture
// time. Used when the config file changes mid-run.
func (s *Sampler) SetInterval(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
}

// Interval returns the configured capture interval.
func (s *Sampler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}
