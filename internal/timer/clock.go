// Package timer implements the focus/break state machine: the phase
// clock, the user-facing state transitions, and the completion
// reconciler that advances phases when a wake-up fires. All state
// lives in the store; every operation here is read-current-state,
// compute-next-state, persist.
package timer

import (
	"time"

	"tomato/internal/store"
)

// PhaseDuration returns the configured length of a phase in seconds.
func PhaseDuration(phase store.Phase, cfg store.Settings) int {
	switch phase {
	case store.PhaseShortBreak:
		return cfg.ShortBreakMinutes * 60
	case store.PhaseLongBreak:
		return cfg.LongBreakMinutes * 60
	default:
		return cfg.FocusMinutes * 60
	}
}

// Remaining returns the seconds left in the current phase at the given
// instant. While counting down it is derived from the end timestamp,
// never from the stored RemainingSeconds; otherwise the stored value
// is returned. Pure: evaluated afresh by every renderer on every tick
// and never triggers a transition itself.
func Remaining(ts store.TimerState, now time.Time) int {
	if ts.CountingDown() {
		d := ts.EndTime.Sub(now)
		if d <= 0 {
			return 0
		}
		// Ceiling, so a display refresh mid-second never skips ahead.
		return int((d + time.Second - 1) / time.Second)
	}
	if ts.RemainingSeconds < 0 {
		return 0
	}
	return ts.RemainingSeconds
}

// NextPhase decides what follows a completed phase. This is the only
// place the long-break cadence is decided: after a focus phase, the
// break is long when the new completed-focus count reaches a multiple
// of the configured interval.
func NextPhase(ts store.TimerState, cfg store.Settings) store.Phase {
	if ts.Phase != store.PhaseFocus {
		return store.PhaseFocus
	}
	if (ts.CompletedFocusCount+1)%cfg.LongBreakInterval == 0 {
		return store.PhaseLongBreak
	}
	return store.PhaseShortBreak
}
