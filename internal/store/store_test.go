package store

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/tomato.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(RegionLocal, KeyLocale, "en"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: values survive and migration does not re-run.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	var locale string
	ok, err := s2.Get(RegionLocal, KeyLocale, &locale)
	if err != nil || !ok {
		t.Fatalf("get locale after reopen: ok=%v err=%v", ok, err)
	}
	if locale != "en" {
		t.Fatalf("expected en, got %q", locale)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

// ============================================================
// Get / Set / SetMany
// ============================================================

func TestGetAbsentKey(t *testing.T) {
	s := newTestStore(t)

	var v string
	ok, err := s.Get(RegionLocal, "missing", &v)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected absent key to report not found")
	}
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set(RegionLocal, "k", map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	var v map[string]int
	ok, err := s.Get(RegionLocal, "k", &v)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v["a"] != 1 {
		t.Fatalf("expected 1, got %d", v["a"])
	}
}

func TestSetNilStoresNull(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set(RegionLocal, KeyLastCompletion, nil); err != nil {
		t.Fatal(err)
	}
	raw, err := s.GetRaw(RegionLocal, KeyLastCompletion)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "null" {
		t.Fatalf("expected null, got %s", raw)
	}

	// Get treats the stored null as absent.
	var lc LastCompletion
	ok, err := s.Get(RegionLocal, KeyLastCompletion, &lc)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("stored null should read as absent")
	}
}

func TestGetMalformedTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO kv (region, key, value) VALUES (?, ?, ?)`,
		string(RegionLocal), KeyTimerState, "{not json",
	)
	if err != nil {
		t.Fatal(err)
	}

	var ts TimerState
	ok, err := s.Get(RegionLocal, KeyTimerState, &ts)
	if err != nil {
		t.Fatalf("malformed record should not error: %v", err)
	}
	if ok {
		t.Fatal("malformed record should read as absent")
	}
}

func TestRegionsAreIndependent(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set(RegionLocal, KeySettings, "local"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(RegionSync, KeySettings, "sync"); err != nil {
		t.Fatal(err)
	}

	var v string
	if _, err := s.Get(RegionLocal, KeySettings, &v); err != nil {
		t.Fatal(err)
	}
	if v != "local" {
		t.Fatalf("expected local, got %q", v)
	}
	if _, err := s.Get(RegionSync, KeySettings, &v); err != nil {
		t.Fatal(err)
	}
	if v != "sync" {
		t.Fatalf("expected sync, got %q", v)
	}
}

func TestSetManyAtomicRead(t *testing.T) {
	s := newTestStore(t)

	err := s.SetMany(RegionLocal, map[string]any{
		"a": 1,
		"b": 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	var a, b int
	if _, err := s.Get(RegionLocal, "a", &a); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(RegionLocal, "b", &b); err != nil {
		t.Fatal(err)
	}
	if a != 1 || b != 2 {
		t.Fatalf("expected 1/2, got %d/%d", a, b)
	}
}

// ============================================================
// Subscriptions
// ============================================================

func TestSubscribeDeliversOldAndNew(t *testing.T) {
	s := newTestStore(t)

	var changes []Change
	unsub := s.Subscribe(func(c Change) { changes = append(changes, c) })
	defer unsub()

	if err := s.Set(RegionLocal, "k", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(RegionLocal, "k", 2); err != nil {
		t.Fatal(err)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Old != nil {
		t.Fatalf("first write should have nil old, got %s", changes[0].Old)
	}
	if string(changes[0].New) != "1" {
		t.Fatalf("expected new 1, got %s", changes[0].New)
	}
	if string(changes[1].Old) != "1" || string(changes[1].New) != "2" {
		t.Fatalf("expected 1 -> 2, got %s -> %s", changes[1].Old, changes[1].New)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := newTestStore(t)

	count := 0
	unsub := s.Subscribe(func(Change) { count++ })

	if err := s.Set(RegionLocal, "k", 1); err != nil {
		t.Fatal(err)
	}
	unsub()
	if err := s.Set(RegionLocal, "k", 2); err != nil {
		t.Fatal(err)
	}

	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
}

func TestSetManyNotifiesPerKey(t *testing.T) {
	s := newTestStore(t)

	seen := map[string]bool{}
	unsub := s.Subscribe(func(c Change) { seen[c.Key] = true })
	defer unsub()

	err := s.SetMany(RegionLocal, map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected notifications for both keys, got %v", seen)
	}
}

// ============================================================
// Settings resolution
// ============================================================

func TestSettingsDefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestResolveSettingsLocalWins(t *testing.T) {
	local := json.RawMessage(`{"focusMinutes": 30}`)
	synced := json.RawMessage(`{"focusMinutes": 45, "shortBreakMinutes": 10}`)

	cfg := ResolveSettings(local, synced)
	if cfg.FocusMinutes != 30 {
		t.Fatalf("local should win: expected 30, got %d", cfg.FocusMinutes)
	}
	if cfg.ShortBreakMinutes != 10 {
		t.Fatalf("synced should fill absent fields: expected 10, got %d", cfg.ShortBreakMinutes)
	}
	if cfg.LongBreakMinutes != 15 {
		t.Fatalf("defaults should fill the rest: expected 15, got %d", cfg.LongBreakMinutes)
	}
}

func TestResolveSettingsAbsentFieldFallsThrough(t *testing.T) {
	// A field missing from local must not zero out the synced value.
	local := json.RawMessage(`{"theme": "dark"}`)
	synced := json.RawMessage(`{"focusMinutes": 50}`)

	cfg := ResolveSettings(local, synced)
	if cfg.Theme != "dark" {
		t.Fatalf("expected dark, got %q", cfg.Theme)
	}
	if cfg.FocusMinutes != 50 {
		t.Fatalf("expected 50, got %d", cfg.FocusMinutes)
	}
}

func TestResolveSettingsMalformed(t *testing.T) {
	cfg := ResolveSettings(json.RawMessage(`{broken`), json.RawMessage(`{broken`))
	if cfg != DefaultSettings() {
		t.Fatalf("malformed input should fall back to defaults, got %+v", cfg)
	}
}

func TestSaveSettingsMirrorsToSync(t *testing.T) {
	s := newTestStore(t)

	cfg := DefaultSettings()
	cfg.FocusMinutes = 50
	if err := s.SaveSettings(cfg); err != nil {
		t.Fatal(err)
	}

	var local, synced Settings
	if _, err := s.Get(RegionLocal, KeySettings, &local); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(RegionSync, KeySettings, &synced); err != nil {
		t.Fatal(err)
	}
	if local.FocusMinutes != 50 || synced.FocusMinutes != 50 {
		t.Fatalf("expected 50 in both regions, got %d/%d", local.FocusMinutes, synced.FocusMinutes)
	}
}

// ============================================================
// Timer state
// ============================================================

func TestTimerStateDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg := DefaultSettings()
	ts, err := s.TimerState(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if ts.Phase != PhaseFocus {
		t.Fatalf("expected focus, got %s", ts.Phase)
	}
	if ts.TotalSeconds != 25*60 || ts.RemainingSeconds != 25*60 {
		t.Fatalf("expected 1500s, got %d/%d", ts.TotalSeconds, ts.RemainingSeconds)
	}
	if ts.IsRunning || ts.IsPaused || ts.EndTime != nil {
		t.Fatalf("expected idle state, got %+v", ts)
	}
}

func TestTimerStateRoundTrip(t *testing.T) {
	s := newTestStore(t)

	end := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	in := TimerState{
		Phase:               PhaseShortBreak,
		TotalSeconds:        300,
		RemainingSeconds:    300,
		IsRunning:           true,
		EndTime:             &end,
		CompletedFocusCount: 3,
		CurrentTask:         "write tests",
	}
	if err := s.SaveTimerState(in); err != nil {
		t.Fatal(err)
	}

	out, err := s.TimerState(DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	if out.Phase != PhaseShortBreak || !out.IsRunning || out.CompletedFocusCount != 3 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.EndTime == nil || !out.EndTime.Equal(end) {
		t.Fatalf("expected end %v, got %v", end, out.EndTime)
	}
}

func TestLastCompletionLifecycle(t *testing.T) {
	s := newTestStore(t)

	lc, err := s.LastCompletion()
	if err != nil {
		t.Fatal(err)
	}
	if lc != nil {
		t.Fatal("expected nil before any completion")
	}

	in := LastCompletion{
		CompletedAt:    time.Now().Truncate(time.Second),
		CompletedPhase: PhaseFocus,
		NextPhase:      PhaseShortBreak,
	}
	if err := s.Set(RegionLocal, KeyLastCompletion, in); err != nil {
		t.Fatal(err)
	}
	lc, err = s.LastCompletion()
	if err != nil {
		t.Fatal(err)
	}
	if lc == nil || lc.NextPhase != PhaseShortBreak {
		t.Fatalf("expected short break suggestion, got %+v", lc)
	}

	if err := s.ClearLastCompletion(); err != nil {
		t.Fatal(err)
	}
	lc, err = s.LastCompletion()
	if err != nil {
		t.Fatal(err)
	}
	if lc != nil {
		t.Fatal("expected nil after clear")
	}
}

// ============================================================
// History
// ============================================================

func TestHistoryEmptyByDefault(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d", len(entries))
	}
}

func TestHistoryNonArrayTreatedAsEmpty(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set(RegionLocal, KeyHistory, map[string]int{"oops": 1}); err != nil {
		t.Fatal(err)
	}
	entries, err := s.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d", len(entries))
	}
}

func TestCapHistoryDropsOldest(t *testing.T) {
	entries := make([]HistoryEntry, MaxHistoryItems+5)
	for i := range entries {
		entries[i] = HistoryEntry{ID: int64(i)}
	}

	capped := CapHistory(entries)
	if len(capped) != MaxHistoryItems {
		t.Fatalf("expected %d entries, got %d", MaxHistoryItems, len(capped))
	}
	if capped[0].ID != 5 {
		t.Fatalf("expected oldest surviving id 5, got %d", capped[0].ID)
	}
	if capped[len(capped)-1].ID != int64(MaxHistoryItems+4) {
		t.Fatalf("newest entry lost: got %d", capped[len(capped)-1].ID)
	}
}

func TestSaveHistoryEnforcesCap(t *testing.T) {
	s := newTestStore(t)

	entries := make([]HistoryEntry, MaxHistoryItems+1)
	for i := range entries {
		entries[i] = HistoryEntry{ID: int64(i), Phase: PhaseFocus}
	}
	if err := s.SaveHistory(entries); err != nil {
		t.Fatal(err)
	}

	got, err := s.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxHistoryItems {
		t.Fatalf("expected %d entries, got %d", MaxHistoryItems, len(got))
	}
}

// ============================================================
// Tasks
// ============================================================

func TestNewTaskDefaults(t *testing.T) {
	now := time.Now()
	task := NewTask("write", "", "", "", nil, now)
	if task.ID != now.UnixMilli() {
		t.Fatalf("expected id %d, got %d", now.UnixMilli(), task.ID)
	}
	if task.Category != "other" || task.Priority != "medium" {
		t.Fatalf("expected defaults, got %q/%q", task.Category, task.Priority)
	}
}

func TestTasksRoundTrip(t *testing.T) {
	s := newTestStore(t)

	est := 50
	tasks := []Task{
		NewTask("a", "desc", "work", "high", &est, time.Now()),
		NewTask("b", "", "study", "low", nil, time.Now().Add(time.Millisecond)),
	}
	if err := s.SaveTasks(tasks); err != nil {
		t.Fatal(err)
	}

	got, err := s.Tasks()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].EstimatedMinutes == nil || *got[0].EstimatedMinutes != 50 {
		t.Fatalf("estimate lost: %+v", got[0])
	}
}

func TestFindTask(t *testing.T) {
	tasks := []Task{{ID: 1}, {ID: 2}, {ID: 3}}
	if i := FindTask(tasks, 2); i != 1 {
		t.Fatalf("expected index 1, got %d", i)
	}
	if i := FindTask(tasks, 99); i != -1 {
		t.Fatalf("expected -1, got %d", i)
	}
}

// ============================================================
// Achievements and locale
// ============================================================

func TestAchievementsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	unlocked, err := s.Achievements()
	if err != nil {
		t.Fatal(err)
	}
	if len(unlocked) != 0 {
		t.Fatalf("expected empty map, got %v", unlocked)
	}

	unlocked["first_pomodoro"] = UnlockRecord{UnlockedAt: time.Now().Truncate(time.Second), UnlockedCount: 1}
	if err := s.SaveAchievements(unlocked); err != nil {
		t.Fatal(err)
	}

	got, err := s.Achievements()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["first_pomodoro"]; !ok {
		t.Fatalf("unlock lost: %v", got)
	}
}

func TestLocale(t *testing.T) {
	s := newTestStore(t)

	if locale := s.Locale(); locale != "" {
		t.Fatalf("expected empty locale, got %q", locale)
	}
	if err := s.SetLocale("zh_CN"); err != nil {
		t.Fatal(err)
	}
	if locale := s.Locale(); locale != "zh_CN" {
		t.Fatalf("expected zh_CN, got %q", locale)
	}
}
