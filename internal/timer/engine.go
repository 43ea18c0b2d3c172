package timer

import (
	"fmt"
	"time"

	"tomato/internal/alarm"
	"tomato/internal/debug"
	"tomato/internal/store"
)

// TimerAlarmName is the single named wake-up the state machine uses.
// Re-scheduling it replaces the previous deadline.
const TimerAlarmName = "tomatoTimer"

// ExtendSeconds is the fixed duration of the "a little longer" restart
// offered by the completion prompt.
const ExtendSeconds = 5 * 60

// Hooks are best-effort side effects emitted by the completion
// reconciler. All fields are optional; failures in a hook must not
// affect the already-committed state transition.
type Hooks struct {
	// PhaseCompleted is called after a completion is committed, only
	// when notifications are enabled.
	PhaseCompleted func(lc store.LastCompletion)
	// OpenPrompt opens the completion decision prompt, only when the
	// open-alarm-page toggle is enabled.
	OpenPrompt func(lc store.LastCompletion)
	// CheckAchievements is run asynchronously over the updated history
	// after a completed focus phase.
	CheckAchievements func(history []store.HistoryEntry)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHooks sets the side-effect hooks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// Engine executes timer state transitions against the shared store.
// It holds no authoritative state of its own: each operation re-reads
// the persisted record, applies a pure transition, and writes it back.
// Concurrent writers interleave last-writer-wins; the transitions are
// idempotent against replays, which is the only protection needed.
type Engine struct {
	store  *store.Store
	alarms *alarm.Scheduler
	now    func() time.Time
	hooks  Hooks

	// readHistory is the store read behind completion handling,
	// replaceable in tests to exercise read-failure paths.
	readHistory func() ([]store.HistoryEntry, error)
}

// New creates an engine over the given store and alarm scheduler.
func New(st *store.Store, alarms *alarm.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		alarms:      alarms,
		now:         time.Now,
		readHistory: st.History,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) load() (store.Settings, store.TimerState, error) {
	cfg, err := e.store.Settings()
	if err != nil {
		return cfg, store.DefaultTimerState(cfg), fmt.Errorf("load settings: %w", err)
	}
	ts, err := e.store.TimerState(cfg)
	if err != nil {
		return cfg, ts, fmt.Errorf("load timer state: %w", err)
	}
	return cfg, ts, nil
}

// StartOptions carries the user-editable inputs of a Start from the
// timer view. Zero values leave the stored state untouched.
type StartOptions struct {
	// FocusMinutes overrides the focus duration when starting a fresh
	// focus phase. Clamped to 1..120 and persisted back into settings.
	FocusMinutes int
	// Task labels the focus phase. Applied only to focus phases.
	Task string
	// TaskID links the phase to a task, if the label came from one.
	TaskID *int64
}

// Start arms the current phase, or resumes it when paused. Starting an
// already counting-down state is a no-op, so two views racing to apply
// the same intent converge on one result.
func (e *Engine) Start(opts StartOptions) error {
	cfg, ts, err := e.load()
	if err != nil {
		return err
	}

	if ts.CountingDown() {
		return nil
	}

	if ts.Phase == store.PhaseFocus && !ts.IsPaused && opts.FocusMinutes > 0 {
		mins := clamp(opts.FocusMinutes, 1, 120)
		ts.TotalSeconds = mins * 60
		ts.RemainingSeconds = mins * 60
		if mins != cfg.FocusMinutes {
			cfg.FocusMinutes = mins
			if err := e.store.SaveSettings(cfg); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
		}
	}
	if ts.Phase == store.PhaseFocus {
		if opts.Task != "" || !ts.IsPaused {
			ts.CurrentTask = opts.Task
			ts.CurrentTaskID = opts.TaskID
		}
	}

	remaining := ts.TotalSeconds
	if ts.IsPaused {
		remaining = ts.RemainingSeconds
	}
	if remaining < 1 {
		remaining = max(1, PhaseDuration(ts.Phase, cfg))
	}

	end := e.now().Add(time.Duration(remaining) * time.Second)
	ts.RemainingSeconds = remaining
	ts.IsRunning = true
	ts.IsPaused = false
	ts.EndTime = &end

	e.alarms.Schedule(TimerAlarmName, end)
	return e.store.SetMany(store.RegionLocal, map[string]any{
		store.KeyTimerState:     ts,
		store.KeyLastCompletion: nil,
	})
}

// Pause suspends a counting-down phase, snapshotting the derived
// remaining time. Pausing an already-paused or idle state is a no-op.
func (e *Engine) Pause() error {
	_, ts, err := e.load()
	if err != nil {
		return err
	}

	if !ts.CountingDown() {
		return nil
	}

	e.alarms.Cancel(TimerAlarmName)
	ts.RemainingSeconds = Remaining(ts, e.now())
	ts.EndTime = nil
	ts.IsPaused = true // IsRunning stays true: paused is a sub-state of running
	return e.store.SaveTimerState(ts)
}

// Toggle pauses a counting-down timer, otherwise starts or resumes
// with whichever remaining time is currently valid. Bound to the
// keyboard shortcut.
func (e *Engine) Toggle() error {
	cfg, ts, err := e.load()
	if err != nil {
		return err
	}

	if ts.CountingDown() {
		return e.Pause()
	}

	remaining := ts.TotalSeconds
	if ts.IsPaused {
		remaining = ts.RemainingSeconds
	}
	if remaining < 1 {
		remaining = max(1, PhaseDuration(ts.Phase, cfg))
	}

	end := e.now().Add(time.Duration(remaining) * time.Second)
	if ts.TotalSeconds == 0 {
		ts.TotalSeconds = remaining
	}
	ts.RemainingSeconds = remaining
	ts.IsRunning = true
	ts.IsPaused = false
	ts.EndTime = &end

	e.alarms.Schedule(TimerAlarmName, end)
	return e.store.SaveTimerState(ts)
}

// Reset cancels any armed wake-up and returns to an idle focus phase
// with a zero cycle count.
func (e *Engine) Reset() error {
	cfg, err := e.store.Settings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	e.alarms.Cancel(TimerAlarmName)
	return e.store.SaveTimerState(store.DefaultTimerState(cfg))
}

// StartPhase arms an explicit phase with an explicit duration and
// clears the pending completion record. Used by the completion prompt.
func (e *Engine) StartPhase(phase store.Phase, durationSeconds int, task string) error {
	cfg, ts, err := e.load()
	if err != nil {
		return err
	}
	if durationSeconds < 1 {
		durationSeconds = PhaseDuration(phase, cfg)
	}

	end := e.now().Add(time.Duration(durationSeconds) * time.Second)
	ts.Phase = phase
	ts.TotalSeconds = durationSeconds
	ts.RemainingSeconds = durationSeconds
	ts.IsRunning = true
	ts.IsPaused = false
	ts.EndTime = &end
	ts.CurrentTask = task
	if task == "" {
		ts.CurrentTaskID = nil
	}

	e.alarms.Schedule(TimerAlarmName, end)
	return e.store.SetMany(store.RegionLocal, map[string]any{
		store.KeyTimerState:     ts,
		store.KeyLastCompletion: nil,
	})
}

// StartNext starts the phase suggested by the pending completion
// record, falling back to a fresh focus phase when none is pending.
func (e *Engine) StartNext() error {
	cfg, err := e.store.Settings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	lc, err := e.store.LastCompletion()
	if err != nil {
		debug.Errorf("read last completion", err)
	}

	phase := store.PhaseFocus
	duration := 0
	task := ""
	if lc != nil {
		phase = lc.NextPhase
		duration = lc.NextDurationSeconds
		if phase != store.PhaseFocus {
			task = lc.CompletedTask
		}
	}
	if duration < 1 {
		duration = PhaseDuration(phase, cfg)
	}
	return e.StartPhase(phase, duration, task)
}

// Extend restarts the phase that just completed for a fixed five
// minutes, preserving the task context for focus phases only.
func (e *Engine) Extend() error {
	lc, err := e.store.LastCompletion()
	if err != nil {
		debug.Errorf("read last completion", err)
	}

	phase := store.PhaseFocus
	task := ""
	if lc != nil {
		phase = lc.CompletedPhase
		if phase == store.PhaseFocus {
			task = lc.CompletedTask
		}
	}
	return e.StartPhase(phase, ExtendSeconds, task)
}

// SkipBreak abandons the suggested break and starts a fresh focus
// phase with the configured duration.
func (e *Engine) SkipBreak() error {
	cfg, err := e.store.Settings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	return e.StartPhase(store.PhaseFocus, PhaseDuration(store.PhaseFocus, cfg), "")
}

// StartTask stages an idle focus phase for the given task, using its
// estimate as the duration when present. The user still presses start.
func (e *Engine) StartTask(t store.Task) error {
	cfg, ts, err := e.load()
	if err != nil {
		return err
	}

	mins := cfg.FocusMinutes
	if t.EstimatedMinutes != nil && *t.EstimatedMinutes > 0 {
		mins = clamp(*t.EstimatedMinutes, 1, 120)
	}

	id := t.ID
	staged := store.TimerState{
		Phase:               store.PhaseFocus,
		TotalSeconds:        mins * 60,
		RemainingSeconds:    mins * 60,
		CompletedFocusCount: ts.CompletedFocusCount,
		CurrentTask:         t.Title,
		CurrentTaskID:       &id,
	}
	e.alarms.Cancel(TimerAlarmName)
	return e.store.SaveTimerState(staged)
}

// ClampSettings bounds every user-editable field to its valid range.
// Applied only at the point of user edit; the resolver never clamps.
func ClampSettings(cfg store.Settings) store.Settings {
	cfg.FocusMinutes = clamp(cfg.FocusMinutes, 1, 180)
	cfg.ShortBreakMinutes = clamp(cfg.ShortBreakMinutes, 1, 60)
	cfg.LongBreakMinutes = clamp(cfg.LongBreakMinutes, 1, 90)
	cfg.LongBreakInterval = clamp(cfg.LongBreakInterval, 2, 8)
	return cfg
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
