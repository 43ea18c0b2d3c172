// Package stats derives aggregate statistics from the completed-focus
// history log. Everything here is a pure function of the log and a
// clock instant; nothing mutates state.
//
// All daily bucketing uses the observer's local calendar date. The
// source system mixed local and UTC date keys between views; one
// convention is used throughout here.
package stats

import (
	"sort"
	"time"

	"tomato/internal/store"
)

// DailyGoalMinutes is the focus-minute threshold a day must reach to
// count toward the streak.
const DailyGoalMinutes = 120

// DateKey buckets an instant by local calendar date.
func DateKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// FocusEntries filters the log down to valid completed focus phases.
func FocusEntries(history []store.HistoryEntry) []store.HistoryEntry {
	var out []store.HistoryEntry
	for _, e := range history {
		if e.Phase == store.PhaseFocus && !e.CompletedAt.IsZero() {
			out = append(out, e)
		}
	}
	return out
}

// DailyMinutes sums focus minutes per local calendar day.
func DailyMinutes(history []store.HistoryEntry) map[string]int {
	totals := make(map[string]int)
	for _, e := range FocusEntries(history) {
		totals[DateKey(e.CompletedAt)] += e.Minutes
	}
	return totals
}

// DailyCounts counts focus completions per local calendar day.
func DailyCounts(history []store.HistoryEntry) map[string]int {
	counts := make(map[string]int)
	for _, e := range FocusEntries(history) {
		counts[DateKey(e.CompletedAt)]++
	}
	return counts
}

// TotalMinutes sums all focus minutes in the log.
func TotalMinutes(history []store.HistoryEntry) int {
	total := 0
	for _, e := range FocusEntries(history) {
		total += e.Minutes
	}
	return total
}

// TaskMinutes sums focus minutes per task label. Entries without a
// task are skipped.
func TaskMinutes(history []store.HistoryEntry) map[string]int {
	totals := make(map[string]int)
	for _, e := range FocusEntries(history) {
		if e.Task == "" {
			continue
		}
		totals[e.Task] += e.Minutes
	}
	return totals
}

// TodayMinutes sums focus minutes completed on the current local day.
func TodayMinutes(history []store.HistoryEntry, now time.Time) int {
	return DailyMinutes(history)[DateKey(now)]
}

// TodayCount counts focus completions on the current local day.
func TodayCount(history []store.HistoryEntry, now time.Time) int {
	return DailyCounts(history)[DateKey(now)]
}

// TrailingMinutes sums focus minutes completed within the trailing
// window of whole days ending at now.
func TrailingMinutes(history []store.HistoryEntry, now time.Time, days int) int {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	total := 0
	for _, e := range FocusEntries(history) {
		if !e.CompletedAt.Before(cutoff) && !e.CompletedAt.After(now) {
			total += e.Minutes
		}
	}
	return total
}

// Streak counts consecutive local calendar days reaching the daily
// goal. Today is counted only if it has already met the goal;
// otherwise counting starts from yesterday. A gap day ends the streak.
func Streak(history []store.HistoryEntry, now time.Time) int {
	totals := DailyMinutes(history)
	met := make(map[string]bool, len(totals))
	for day, minutes := range totals {
		if minutes >= DailyGoalMinutes {
			met[day] = true
		}
	}
	if len(met) == 0 {
		return 0
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !met[DateKey(day)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for met[DateKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LongestRun returns the longest run of focus entries each completed
// within 24 hours of the previous one, ordered by completion time. A
// gap of 24 hours or more resets the run to 1, not 0: a single
// isolated entry still counts as a run of one.
func LongestRun(history []store.HistoryEntry) int {
	entries := FocusEntries(history)
	if len(entries) == 0 {
		return 0
	}
	sorted := make([]store.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.Before(sorted[j].CompletedAt)
	})

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].CompletedAt.Sub(sorted[i-1].CompletedAt) < 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Period selects the reporting window for the stats view.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// PeriodSummary is the headline block of the stats view.
type PeriodSummary struct {
	TotalMinutes   int
	TotalPomodoros int
	CurrentStreak  int
	Start          time.Time
}

// Summarize aggregates the log over the given period ending at now.
func Summarize(history []store.HistoryEntry, period Period, now time.Time) PeriodSummary {
	var start time.Time
	switch period {
	case PeriodWeek:
		start = now.Add(-7 * 24 * time.Hour)
	case PeriodYear:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}

	s := PeriodSummary{Start: start, CurrentStreak: Streak(history, now)}
	for _, e := range FocusEntries(history) {
		if e.CompletedAt.Before(start) {
			continue
		}
		s.TotalMinutes += e.Minutes
		s.TotalPomodoros++
	}
	return s
}

// DayMinutes is one point of the daily trend series.
type DayMinutes struct {
	Date    string
	Minutes int
}

// DailySeries returns one point per local calendar day from start to
// end inclusive, zero-filled for days without completions.
func DailySeries(history []store.HistoryEntry, start, end time.Time) []DayMinutes {
	totals := DailyMinutes(history)

	var series []DayMinutes
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for !day.After(last) {
		key := DateKey(day)
		series = append(series, DayMinutes{Date: key, Minutes: totals[key]})
		day = day.AddDate(0, 0, 1)
	}
	return series
}
