package tui

import (
	"fmt"
	"time"

	"tomato/internal/achievements"
	"tomato/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewStats
	viewAchievements
	viewSettings
)

var viewNames = []string{"Timer", "Tasks", "Stats", "Achievements", "Settings"}

// --- Messages ---

// StoreChangedMsg is delivered for every store mutation, local or from
// another process. Views re-derive their state from it; nothing polls.
type StoreChangedMsg struct {
	Change store.Change
}

// NotifyMsg is a user notification (phase completion, achievement
// unlock) surfaced as a status toast plus a terminal bell.
type NotifyMsg struct {
	Title string
	Body  string
	Bell  bool
}

// PromptMsg asks the app to open the completion prompt overlay.
type PromptMsg struct {
	Completion store.LastCompletion
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type timerDataMsg struct {
	settings store.Settings
	state    store.TimerState
	history  []store.HistoryEntry
}

type tasksDataMsg struct {
	tasks []store.Task
	spent map[string]int // focus minutes keyed by task label
}

type statsDataMsg struct {
	history []store.HistoryEntry
}

type achievementsDataMsg struct {
	unlocked map[string]store.UnlockRecord
}

type settingsDataMsg struct {
	settings store.Settings
	locale   string
}

// UnlockMsg announces a newly unlocked achievement.
type UnlockMsg struct {
	Achievement achievements.Achievement
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatHours(minutes int) string {
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}
