package timer

import (
	"fmt"
	"time"

	"tomato/internal/store"
)

// completionSlack tolerates early wake-ups: an alarm is not guaranteed
// to fire exactly on schedule, so a deadline still more than a second
// away is treated as stale and left alone.
const completionSlack = time.Second

// HandleCompletion advances the state machine when a timed phase has
// actually elapsed. It is invoked by the wake-up callback and by
// startup reconciliation, and may be invoked redundantly by several
// observers: the guard re-checks the persisted state before acting, so
// a wake-up that fired for a state that has since changed is a no-op.
// The guard, not alarm cancellation, is the correctness backstop.
func (e *Engine) HandleCompletion() error {
	cfg, ts, err := e.load()
	if err != nil {
		return err
	}

	if !ts.IsRunning || ts.IsPaused {
		return nil
	}
	now := e.now()
	if ts.EndTime != nil && ts.EndTime.After(now.Add(completionSlack)) {
		return nil
	}

	completed := ts.Phase
	next := NextPhase(ts, cfg)
	nextDuration := PhaseDuration(next, cfg)

	nextCount := ts.CompletedFocusCount
	if completed == store.PhaseFocus {
		nextCount++
	}

	// A read failure aborts the transition. The atomic write below
	// replaces the log wholesale, so committing without it would wipe
	// every recorded session.
	history, err := e.readHistory()
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if completed == store.PhaseFocus {
		history = append(history, store.HistoryEntry{
			ID:          now.UnixMilli(),
			CompletedAt: now,
			Minutes:     (ts.TotalSeconds + 30) / 60,
			Task:        ts.CurrentTask,
			Phase:       completed,
		})
	}
	history = store.CapHistory(history)

	nextState := ts
	nextState.Phase = next
	nextState.TotalSeconds = nextDuration
	nextState.RemainingSeconds = nextDuration
	nextState.IsRunning = cfg.AutoStartNext
	nextState.IsPaused = false
	nextState.EndTime = nil
	nextState.CompletedFocusCount = nextCount
	if next == store.PhaseFocus {
		nextState.CurrentTask = ""
		nextState.CurrentTaskID = nil
	}
	if cfg.AutoStartNext {
		end := now.Add(time.Duration(nextDuration) * time.Second)
		nextState.EndTime = &end
	}

	lc := store.LastCompletion{
		CompletedAt:         now,
		CompletedPhase:      completed,
		NextPhase:           next,
		NextDurationSeconds: nextDuration,
		CompletedTask:       ts.CurrentTask,
		AutoStarted:         cfg.AutoStartNext,
	}

	e.alarms.Cancel(TimerAlarmName)

	// One write: observers never see the new phase without its history
	// entry and completion record.
	err = e.store.SetMany(store.RegionLocal, map[string]any{
		store.KeySettings:       cfg,
		store.KeyTimerState:     nextState,
		store.KeyHistory:        history,
		store.KeyLastCompletion: lc,
	})
	if err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}

	if cfg.NotificationEnabled && e.hooks.PhaseCompleted != nil {
		e.hooks.PhaseCompleted(lc)
	}
	if cfg.OpenAlarmPage && e.hooks.OpenPrompt != nil {
		e.hooks.OpenPrompt(lc)
	}
	if cfg.AutoStartNext && nextState.EndTime != nil {
		e.alarms.Schedule(TimerAlarmName, *nextState.EndTime)
	}

	// Achievement evaluation is isolated: a failure there cannot roll
	// back the committed transition.
	if completed == store.PhaseFocus && e.hooks.CheckAchievements != nil {
		snapshot := make([]store.HistoryEntry, len(history))
		copy(snapshot, history)
		go e.hooks.CheckAchievements(snapshot)
	}
	return nil
}

// EnsureInitialized defaults any missing persisted records and
// reconciles a timer that was counting down while the process was
// gone: an overdue deadline is completed, a live one re-arms the
// wake-up. Called once at process start; UI observers call it too as
// a best-effort cover for races where they open before the
// coordinator has handled a stale alarm.
func (e *Engine) EnsureInitialized() error {
	cfg, err := e.store.Settings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	ts, err := e.store.TimerState(cfg)
	if err != nil {
		return fmt.Errorf("load timer state: %w", err)
	}
	history, err := e.readHistory()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	err = e.store.SetMany(store.RegionLocal, map[string]any{
		store.KeySettings:   cfg,
		store.KeyTimerState: ts,
		store.KeyHistory:    store.CapHistory(history),
	})
	if err != nil {
		return fmt.Errorf("persist initial state: %w", err)
	}

	if ts.CountingDown() {
		if !ts.EndTime.After(e.now()) {
			return e.HandleCompletion()
		}
		e.alarms.Schedule(TimerAlarmName, *ts.EndTime)
	}
	return nil
}
