// Package achievements evaluates gamification rules over the history
// log. Each achievement is a tagged predicate over a pre-computed
// summary, evaluated uniformly; unlocks are write-once and never
// re-evaluated.
package achievements

import (
	"time"

	"tomato/internal/stats"
	"tomato/internal/store"
)

// WeeklyGoalMinutes is the trailing-7-day threshold for week_goal.
const WeeklyGoalMinutes = 720

// Summary carries every aggregate the predicates look at, computed
// once per evaluation pass.
type Summary struct {
	FocusCount      int
	TotalHours      float64
	TodayMinutes    int
	WeekMinutes     int
	Streak          int
	MaxDayCount     int
	MaxDayMinutes   int
	LongestRun      int
	HasEarlyEntry   bool // any focus entry before 08:00 local
	HasLateEntry    bool // any focus entry at or after 22:00 local
}

// Summarize computes a Summary from the history log at the given
// instant.
func Summarize(history []store.HistoryEntry, now time.Time) *Summary {
	entries := stats.FocusEntries(history)

	s := &Summary{
		FocusCount:   len(entries),
		TodayMinutes: stats.TodayMinutes(history, now),
		WeekMinutes:  stats.TrailingMinutes(history, now, 7),
		Streak:       stats.Streak(history, now),
		LongestRun:   stats.LongestRun(history),
	}

	totalMinutes := stats.TotalMinutes(history)
	// Tenth-of-an-hour resolution, matching how totals are displayed.
	s.TotalHours = float64(int(float64(totalMinutes)/60*10+0.5)) / 10

	for _, count := range stats.DailyCounts(history) {
		if count > s.MaxDayCount {
			s.MaxDayCount = count
		}
	}
	for _, minutes := range stats.DailyMinutes(history) {
		if minutes > s.MaxDayMinutes {
			s.MaxDayMinutes = minutes
		}
	}
	for _, e := range entries {
		hour := e.CompletedAt.Local().Hour()
		if hour < 8 {
			s.HasEarlyEntry = true
		}
		if hour >= 22 {
			s.HasLateEntry = true
		}
	}
	return s
}

// Achievement is one unlockable rule. NameKey and DescKey are i18n
// message keys; Unlocked is the predicate.
type Achievement struct {
	ID       string
	NameKey  string
	DescKey  string
	Icon     string
	Unlocked func(s *Summary) bool
}

// All is the full achievement catalog, evaluated in order.
var All = []Achievement{
	{ID: "first_pomodoro", NameKey: "ach_first_pomodoro_name", DescKey: "ach_first_pomodoro_desc", Icon: "🍅",
		Unlocked: func(s *Summary) bool { return s.FocusCount >= 1 }},
	{ID: "daily_goal", NameKey: "ach_daily_goal_name", DescKey: "ach_daily_goal_desc", Icon: "🏆",
		Unlocked: func(s *Summary) bool { return s.TodayMinutes >= stats.DailyGoalMinutes }},
	{ID: "week_goal", NameKey: "ach_week_goal_name", DescKey: "ach_week_goal_desc", Icon: "🎖",
		Unlocked: func(s *Summary) bool { return s.WeekMinutes >= WeeklyGoalMinutes }},
	{ID: "streak_3", NameKey: "ach_streak_3_name", DescKey: "ach_streak_3_desc", Icon: "🔥",
		Unlocked: func(s *Summary) bool { return s.Streak >= 3 }},
	{ID: "streak_7", NameKey: "ach_streak_7_name", DescKey: "ach_streak_7_desc", Icon: "🔥",
		Unlocked: func(s *Summary) bool { return s.Streak >= 7 }},
	{ID: "streak_30", NameKey: "ach_streak_30_name", DescKey: "ach_streak_30_desc", Icon: "💎",
		Unlocked: func(s *Summary) bool { return s.Streak >= 30 }},
	{ID: "focus_100", NameKey: "ach_focus_100_name", DescKey: "ach_focus_100_desc", Icon: "⏱",
		Unlocked: func(s *Summary) bool { return s.TotalHours >= 100 }},
	{ID: "focus_500", NameKey: "ach_focus_500_name", DescKey: "ach_focus_500_desc", Icon: "💠",
		Unlocked: func(s *Summary) bool { return s.TotalHours >= 500 }},
	{ID: "early_bird", NameKey: "ach_early_bird_name", DescKey: "ach_early_bird_desc", Icon: "🌅",
		Unlocked: func(s *Summary) bool { return s.HasEarlyEntry }},
	{ID: "night_owl", NameKey: "ach_night_owl_name", DescKey: "ach_night_owl_desc", Icon: "🌙",
		Unlocked: func(s *Summary) bool { return s.HasLateEntry }},
	{ID: "speed_demon", NameKey: "ach_speed_demon_name", DescKey: "ach_speed_demon_desc", Icon: "⚡",
		Unlocked: func(s *Summary) bool { return s.MaxDayCount >= 8 }},
	{ID: "marathon", NameKey: "ach_marathon_name", DescKey: "ach_marathon_desc", Icon: "🏃",
		Unlocked: func(s *Summary) bool { return s.MaxDayMinutes >= 240 }},
	{ID: "perfectionist", NameKey: "ach_perfectionist_name", DescKey: "ach_perfectionist_desc", Icon: "✅",
		Unlocked: func(s *Summary) bool { return s.LongestRun >= 7 }},
}

// ByID returns the catalog entry for id, or nil.
func ByID(id string) *Achievement {
	for i := range All {
		if All[i].ID == id {
			return &All[i]
		}
	}
	return nil
}

// Evaluate runs every still-locked predicate against the summary of
// history. It returns the newly unlocked achievements and the updated
// unlock map. Records already present in unlocked are never touched.
func Evaluate(history []store.HistoryEntry, unlocked map[string]store.UnlockRecord, now time.Time) ([]Achievement, map[string]store.UnlockRecord) {
	updated := make(map[string]store.UnlockRecord, len(unlocked))
	for id, rec := range unlocked {
		updated[id] = rec
	}

	summary := Summarize(history, now)
	var newly []Achievement
	for _, a := range All {
		if _, done := updated[a.ID]; done {
			continue
		}
		if a.Unlocked(summary) {
			updated[a.ID] = store.UnlockRecord{UnlockedAt: now, UnlockedCount: 1}
			newly = append(newly, a)
		}
	}
	return newly, updated
}
