// Package alarm provides named one-shot wake-ups that fire at or after
// an absolute deadline. Scheduling a name that is already armed
// replaces the previous schedule. The callback runs on its own
// goroutine; callers re-check persisted state before acting on it,
// because cancellation races with firing.
package alarm

import (
	"sync"
	"time"
)

// Scheduler arms and cancels named wake-ups.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	gen    map[string]uint64
	onFire func(name string)
}

// NewScheduler creates a scheduler delivering fired alarms to onFire.
func NewScheduler(onFire func(name string)) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		gen:    make(map[string]uint64),
		onFire: onFire,
	}
}

// Schedule arms name to fire at the given wall-clock time, replacing
// any existing schedule under the same name. A deadline in the past
// fires immediately.
func (s *Scheduler) Schedule(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Stop()
	}
	s.gen[name]++
	gen := s.gen[name]

	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	s.timers[name] = time.AfterFunc(d, func() {
		s.mu.Lock()
		live := s.gen[name] == gen
		if live {
			delete(s.timers, name)
		}
		s.mu.Unlock()
		// A replaced or cancelled schedule stays silent even if the
		// timer had already expired.
		if live {
			s.onFire(name)
		}
	})
}

// Cancel disarms name. Cancelling an unknown name is a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
	s.gen[name]++
}

// Armed reports whether name currently has a pending schedule.
func (s *Scheduler) Armed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// Stop cancels every pending schedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
		s.gen[name]++
	}
}
