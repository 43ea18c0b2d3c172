package timer

import (
	"testing"
	"time"

	"tomato/internal/alarm"
	"tomato/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store, *fakeClock) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	sched := alarm.NewScheduler(func(string) {})
	t.Cleanup(sched.Stop)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(s, sched, opts...), s, clock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// ============================================================
// Start
// ============================================================

func TestStartArmsFocusPhase(t *testing.T) {
	e, s, clock := newTestEngine(t)

	if err := e.Start(StartOptions{}); err != nil {
		t.Fatal(err)
	}

	ts, err := s.TimerState(store.DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	if !ts.IsRunning || ts.IsPaused {
		t.Fatalf("expected running state, got %+v", ts)
	}
	if ts.EndTime == nil {
		t.Fatal("expected end time")
	}
	want := clock.Now().Add(25 * time.Minute)
	if !ts.EndTime.Equal(want) {
		t.Fatalf("expected end %v, got %v", want, ts.EndTime)
	}
}

func TestStartWhileCountingDownIsNoop(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.Start(StartOptions{}); err != nil {
		t.Fatal(err)
	}
	first, _ := s.TimerState(store.DefaultSettings())

	if err := e.Start(StartOptions{FocusMinutes: 5, Task: "other"}); err != nil {
		t.Fatal(err)
	}
	second, _ := s.TimerState(store.DefaultSettings())

	if !second.EndTime.Equal(*first.EndTime) || second.TotalSeconds != first.TotalSeconds {
		t.Fatalf("second start must not change state: %+v vs %+v", first, second)
	}
}

func TestStartOverrideClampsAndPersists(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.Start(StartOptions{FocusMinutes: 999}); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.TotalSeconds != 120*60 {
		t.Fatalf("expected clamp to 120 minutes, got %d", ts.TotalSeconds)
	}

	cfg, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FocusMinutes != 120 {
		t.Fatalf("override should persist into settings, got %d", cfg.FocusMinutes)
	}
}

func TestStartSetsTaskAndClearsCompletion(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := s.Set(store.RegionLocal, store.KeyLastCompletion, store.LastCompletion{CompletedPhase: store.PhaseFocus}); err != nil {
		t.Fatal(err)
	}

	id := int64(7)
	if err := e.Start(StartOptions{Task: "ship it", TaskID: &id}); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.CurrentTask != "ship it" || ts.CurrentTaskID == nil || *ts.CurrentTaskID != 7 {
		t.Fatalf("task not staged: %+v", ts)
	}

	lc, err := s.LastCompletion()
	if err != nil {
		t.Fatal(err)
	}
	if lc != nil {
		t.Fatal("explicit start must clear the completion record")
	}
}

// ============================================================
// Pause / Toggle / Reset
// ============================================================

func TestPauseSnapshotsRemaining(t *testing.T) {
	e, s, clock := newTestEngine(t)

	if err := e.Start(StartOptions{}); err != nil {
		t.Fatal(err)
	}
	clock.advance(10 * time.Minute)
	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if !ts.IsPaused || !ts.IsRunning {
		t.Fatalf("paused is a sub-state of running: %+v", ts)
	}
	if ts.EndTime != nil {
		t.Fatal("paused state must not keep an end time")
	}
	if ts.RemainingSeconds != 15*60 {
		t.Fatalf("expected 900s remaining, got %d", ts.RemainingSeconds)
	}
}

func TestPauseIdleIsNoop(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}
	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.IsPaused {
		t.Fatal("pausing an idle timer must do nothing")
	}
}

func TestPauseIsIdempotent(t *testing.T) {
	e, s, clock := newTestEngine(t)

	if err := e.Start(StartOptions{}); err != nil {
		t.Fatal(err)
	}
	clock.advance(time.Minute)
	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}
	first, _ := s.TimerState(store.DefaultSettings())

	clock.advance(time.Minute)
	if err := e.Pause(); err != nil {
		t.Fatal(err)
	}
	second, _ := s.TimerState(store.DefaultSettings())

	if second.RemainingSeconds != first.RemainingSeconds {
		t.Fatalf("second pause changed the snapshot: %d vs %d",
			first.RemainingSeconds, second.RemainingSeconds)
	}
}

func TestToggleResumesFromSnapshot(t *testing.T) {
	e, s, clock := newTestEngine(t)

	if err := e.Start(StartOptions{}); err != nil {
		t.Fatal(err)
	}
	clock.advance(10 * time.Minute)
	if err := e.Toggle(); err != nil { // pause
		t.Fatal(err)
	}
	clock.advance(time.Hour) // time passes while paused
	if err := e.Toggle(); err != nil { // resume
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if !ts.CountingDown() {
		t.Fatalf("expected counting down, got %+v", ts)
	}
	want := clock.Now().Add(15 * time.Minute)
	if !ts.EndTime.Equal(want) {
		t.Fatalf("resume must use the snapshot: expected %v, got %v", want, ts.EndTime)
	}
}

func TestResetReturnsToIdleFocus(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.Start(StartOptions{Task: "something"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Reset(); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.IsRunning || ts.IsPaused || ts.EndTime != nil {
		t.Fatalf("expected idle, got %+v", ts)
	}
	if ts.Phase != store.PhaseFocus || ts.CompletedFocusCount != 0 {
		t.Fatalf("expected fresh focus with zero count, got %+v", ts)
	}
	if ts.CurrentTask != "" {
		t.Fatalf("reset must drop the task, got %q", ts.CurrentTask)
	}
}

// ============================================================
// Prompt operations
// ============================================================

func TestStartNextUsesSuggestion(t *testing.T) {
	e, s, clock := newTestEngine(t)

	err := s.Set(store.RegionLocal, store.KeyLastCompletion, store.LastCompletion{
		CompletedPhase:      store.PhaseFocus,
		NextPhase:           store.PhaseShortBreak,
		NextDurationSeconds: 300,
		CompletedTask:       "deep work",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.StartNext(); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.Phase != store.PhaseShortBreak || ts.TotalSeconds != 300 {
		t.Fatalf("expected 300s short break, got %+v", ts)
	}
	if ts.CurrentTask != "deep work" {
		t.Fatalf("task should carry across the break, got %q", ts.CurrentTask)
	}
	want := clock.Now().Add(300 * time.Second)
	if ts.EndTime == nil || !ts.EndTime.Equal(want) {
		t.Fatalf("expected end %v, got %v", want, ts.EndTime)
	}

	lc, _ := s.LastCompletion()
	if lc != nil {
		t.Fatal("starting the next phase must clear the record")
	}
}

func TestStartNextWithoutRecordStartsFocus(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.StartNext(); err != nil {
		t.Fatal(err)
	}
	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.Phase != store.PhaseFocus || ts.TotalSeconds != 25*60 {
		t.Fatalf("expected configured focus, got %+v", ts)
	}
}

func TestExtendRestartsCompletedPhase(t *testing.T) {
	e, s, _ := newTestEngine(t)

	err := s.Set(store.RegionLocal, store.KeyLastCompletion, store.LastCompletion{
		CompletedPhase: store.PhaseShortBreak,
		NextPhase:      store.PhaseFocus,
		CompletedTask:  "stale",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Extend(); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.Phase != store.PhaseShortBreak || ts.TotalSeconds != ExtendSeconds {
		t.Fatalf("expected 5-minute short break, got %+v", ts)
	}
	if ts.CurrentTask != "" {
		t.Fatalf("break extension must not carry a task, got %q", ts.CurrentTask)
	}
}

func TestSkipBreakStartsFreshFocus(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.SkipBreak(); err != nil {
		t.Fatal(err)
	}
	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.Phase != store.PhaseFocus || !ts.IsRunning {
		t.Fatalf("expected running focus, got %+v", ts)
	}
	if ts.TotalSeconds != 25*60 {
		t.Fatalf("expected configured duration, got %d", ts.TotalSeconds)
	}
}

// ============================================================
// StartTask
// ============================================================

func TestStartTaskStagesIdleFocus(t *testing.T) {
	e, s, _ := newTestEngine(t)

	est := 50
	task := store.Task{ID: 42, Title: "refactor", EstimatedMinutes: &est}
	if err := e.StartTask(task); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.IsRunning {
		t.Fatal("StartTask stages; it must not start the countdown")
	}
	if ts.TotalSeconds != 50*60 {
		t.Fatalf("expected estimate as duration, got %d", ts.TotalSeconds)
	}
	if ts.CurrentTask != "refactor" || ts.CurrentTaskID == nil || *ts.CurrentTaskID != 42 {
		t.Fatalf("task link missing: %+v", ts)
	}
}

func TestStartTaskWithoutEstimateUsesConfig(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := e.StartTask(store.Task{ID: 1, Title: "a"}); err != nil {
		t.Fatal(err)
	}
	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.TotalSeconds != 25*60 {
		t.Fatalf("expected configured focus length, got %d", ts.TotalSeconds)
	}
}

func TestStartTaskPreservesCycleCount(t *testing.T) {
	e, s, _ := newTestEngine(t)

	if err := s.SaveTimerState(store.TimerState{Phase: store.PhaseFocus, CompletedFocusCount: 3}); err != nil {
		t.Fatal(err)
	}
	if err := e.StartTask(store.Task{ID: 1, Title: "a"}); err != nil {
		t.Fatal(err)
	}
	ts, _ := s.TimerState(store.DefaultSettings())
	if ts.CompletedFocusCount != 3 {
		t.Fatalf("cycle count lost: %d", ts.CompletedFocusCount)
	}
}
