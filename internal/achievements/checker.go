package achievements

import (
	"fmt"
	"time"

	"tomato/internal/store"
)

// Checker persists newly unlocked achievements and reports them.
type Checker struct {
	store    *store.Store
	now      func() time.Time
	onUnlock func(Achievement)
}

// NewChecker creates a checker. onUnlock may be nil.
func NewChecker(st *store.Store, onUnlock func(Achievement)) *Checker {
	return &Checker{store: st, now: time.Now, onUnlock: onUnlock}
}

// WithClock overrides the wall clock, for tests.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// Check evaluates the catalog over history and persists any new
// unlocks, notifying per unlock. Called after each completed focus
// phase; an error here never affects the timer transition that
// triggered it.
func (c *Checker) Check(history []store.HistoryEntry) error {
	unlocked, err := c.store.Achievements()
	if err != nil {
		return fmt.Errorf("read achievements: %w", err)
	}

	newly, updated := Evaluate(history, unlocked, c.now())
	if len(newly) == 0 {
		return nil
	}
	if err := c.store.SaveAchievements(updated); err != nil {
		return fmt.Errorf("save achievements: %w", err)
	}
	if c.onUnlock != nil {
		for _, a := range newly {
			c.onUnlock(a)
		}
	}
	return nil
}
