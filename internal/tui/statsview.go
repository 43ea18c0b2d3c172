package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tomato/internal/stats"
	"tomato/internal/store"
)

var statsPeriods = []stats.Period{stats.PeriodWeek, stats.PeriodMonth, stats.PeriodYear}

type statsModel struct {
	store  *store.Store
	width  int
	height int

	history []store.HistoryEntry
	period  int // index into statsPeriods

	chart barchart.Model
}

func newStatsModel(s *store.Store) statsModel {
	return statsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *statsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

func (r statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		history, _ := r.store.History()
		return statsDataMsg{history: history}
	}
}

func (r statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		r.history = msg.history
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if r.period > 0 {
				r.period--
				r.buildChart()
			}
		case key.Matches(msg, keys.Right):
			if r.period < len(statsPeriods)-1 {
				r.period++
				r.buildChart()
			}
		case key.Matches(msg, keys.Tab):
			r.period = (r.period + 1) % len(statsPeriods)
			r.buildChart()
		}
	}
	return r, nil
}

// chartDays returns how many trailing days the bar chart shows for the
// active period. The year view stays at 14 days so bars remain legible;
// the summary figures below the chart still cover the full period.
func (r statsModel) chartDays() int {
	switch statsPeriods[r.period] {
	case stats.PeriodMonth:
		return 14
	case stats.PeriodYear:
		return 14
	default:
		return 7
	}
}

func (r *statsModel) buildChart() {
	days := r.chartDays()

	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 30 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	now := time.Now()
	series := stats.DailySeries(r.history, now.AddDate(0, 0, -(days-1)), now)

	var bars []barchart.BarData
	for _, day := range series {
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if day.Minutes >= stats.DailyGoalMinutes {
			style = lipgloss.NewStyle().Foreground(colorBreak)
		}
		label := day.Date
		if len(label) > 5 {
			label = label[len(label)-2:]
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  day.Date,
				Value: float64(day.Minutes),
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r statsModel) view() string {
	w := r.width - 4

	var tabs []string
	for i, p := range statsPeriods {
		label := periodLabel(p)
		if i == r.period {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	periodTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", periodTabs,
	)

	summary := stats.Summarize(r.history, statsPeriods[r.period], time.Now())
	summaryView := r.renderSummary(summary)

	chartView := r.chart.View()
	chartLabel := mutedStyle.Render(fmt.Sprintf("  Daily focus minutes, last %d days", r.chartDays()))

	nav := mutedStyle.Render("  ←/→ or tab: switch period")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", summaryView, "", chartView, chartLabel, "", nav,
		),
	)
}

func (r statsModel) renderSummary(s stats.PeriodSummary) string {
	now := time.Now()
	total := stats.TotalMinutes(r.history)

	days := int(now.Sub(s.Start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	avg := s.TotalMinutes / days

	cell := func(label, value string) string {
		return lipgloss.JoinVertical(lipgloss.Center,
			highlightStyle.Render(value),
			mutedStyle.Render(label),
		)
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("pomodoros", fmt.Sprintf("%d", s.TotalPomodoros)), "    ",
		cell("focus time", formatHours(s.TotalMinutes)), "    ",
		cell("avg/day", fmt.Sprintf("%dm", avg)), "    ",
		cell("streak", fmt.Sprintf("%dd", s.CurrentStreak)), "    ",
		cell("all time", formatHours(total)),
	)

	todayMin := stats.TodayMinutes(r.history, now)
	today := fmt.Sprintf("  Today: %d pomodoros, %d min", stats.TodayCount(r.history, now), todayMin)
	goalState := "goal not reached"
	if todayMin >= stats.DailyGoalMinutes {
		goalState = "daily goal reached"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"  "+row,
		"",
		mutedStyle.Render(today+"  ·  "+goalState),
	)
}

func periodLabel(p stats.Period) string {
	switch p {
	case stats.PeriodMonth:
		return "Month"
	case stats.PeriodYear:
		return "Year"
	default:
		return "Week"
	}
}
