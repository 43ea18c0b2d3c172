package store

import "time"

// Phase is the activity type currently being timed.
type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "shortBreak"
	PhaseLongBreak  Phase = "longBreak"
)

// IsBreak reports whether the phase is a short or long break.
func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

// Settings is the effective configuration record. Once resolved it is
// always fully populated; absent fields fall back to defaults.
type Settings struct {
	FocusMinutes        int    `json:"focusMinutes"`
	ShortBreakMinutes   int    `json:"shortBreakMinutes"`
	LongBreakMinutes    int    `json:"longBreakMinutes"`
	LongBreakInterval   int    `json:"longBreakInterval"`
	AutoStartNext       bool   `json:"autoStartNext"`
	NotificationEnabled bool   `json:"notificationEnabled"`
	SoundEnabled        bool   `json:"soundEnabled"`
	OpenAlarmPage       bool   `json:"openAlarmPage"`
	Theme               string `json:"theme"`
}

// TimerState is the single persisted record describing what is
// happening now. It is shared by every view; the store is the
// serialization point and every write is last-writer-wins.
//
// Valid flag combinations: idle (!IsRunning, !IsPaused), counting down
// (IsRunning, !IsPaused), suspended mid-phase (IsRunning, IsPaused).
// Paused is a sub-state of running, not its negation.
type TimerState struct {
	Phase            Phase `json:"phase"`
	TotalSeconds     int   `json:"totalSeconds"`
	RemainingSeconds int   `json:"remainingSeconds"`
	IsRunning        bool  `json:"isRunning"`
	IsPaused         bool  `json:"isPaused"`
	// EndTime is set only while counting down. While it is set, remaining
	// time is always derived from it, never from RemainingSeconds.
	EndTime             *time.Time `json:"endTime"`
	CompletedFocusCount int        `json:"completedFocusCount"`
	CurrentTask         string     `json:"currentTask"`
	CurrentTaskID       *int64     `json:"currentTaskId"`
}

// CountingDown reports whether the timer is actively running toward an
// end timestamp.
func (ts TimerState) CountingDown() bool {
	return ts.IsRunning && !ts.IsPaused && ts.EndTime != nil
}

// LastCompletion describes the most recently finished phase. It is
// written by the completion reconciler, consumed once by the completion
// prompt, and cleared the moment a new phase is explicitly started.
type LastCompletion struct {
	CompletedAt         time.Time `json:"completedAt"`
	CompletedPhase      Phase     `json:"completedPhase"`
	NextPhase           Phase     `json:"nextPhase"`
	NextDurationSeconds int       `json:"nextDurationSeconds"`
	CompletedTask       string    `json:"completedTask"`
	AutoStarted         bool      `json:"autoStarted"`
}

// HistoryEntry is an immutable record of one completed focus phase.
// Breaks are never logged.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	CompletedAt time.Time `json:"completedAt"`
	Minutes     int       `json:"minutes"`
	Task        string    `json:"task"`
	Phase       Phase     `json:"phase"`
}

// UnlockRecord marks an achievement as unlocked. Write-once per id:
// once present it is never re-evaluated or overwritten.
type UnlockRecord struct {
	UnlockedAt    time.Time `json:"unlockedAt"`
	UnlockedCount int       `json:"unlockedCount"`
}

// Task is a to-do item a focus phase can be started against.
type Task struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         string     `json:"category"` // work, study, personal, other
	Priority         string     `json:"priority"` // low, medium, high
	EstimatedMinutes *int       `json:"estimatedMinutes"`
	Completed        bool       `json:"completed"`
	Pinned           bool       `json:"pinned"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedAt      *time.Time `json:"completedAt"`
}
