package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"tomato/internal/stats"
	"tomato/internal/store"
	"tomato/internal/timer"
)

// timerModel is the main countdown view. It holds a read-through cache
// of the persisted records, refreshed only via store change messages;
// the per-second tick re-derives the displayed remaining time from the
// end timestamp and never mutates anything.
type timerModel struct {
	store  *store.Store
	engine *timer.Engine
	width  int
	height int

	settings store.Settings
	state    store.TimerState
	history  []store.HistoryEntry

	// Focus-duration override staged in the idle focus phase.
	editMinutes int

	formActive bool
	form       *huh.Form
	taskLabel  *string
}

func newTimerModel(s *store.Store, e *timer.Engine) timerModel {
	label := ""
	return timerModel{
		store:     s,
		engine:    e,
		settings:  store.DefaultSettings(),
		taskLabel: &label,
	}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) refresh() tea.Cmd {
	return func() tea.Msg {
		cfg, _ := t.store.Settings()
		state, _ := t.store.TimerState(cfg)
		history, _ := t.store.History()
		return timerDataMsg{settings: cfg, state: state, history: history}
	}
}

// editable reports whether the focus duration and task can be changed:
// only a fresh idle focus phase.
func (t timerModel) editable() bool {
	return !t.state.Phase.IsBreak() && !t.state.IsRunning && !t.state.IsPaused
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case timerDataMsg:
		t.settings = msg.settings
		t.state = msg.state
		t.history = msg.history
		if t.editable() {
			t.editMinutes = t.state.TotalSeconds / 60
		} else {
			t.editMinutes = 0
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			return t, t.startCmd()
		case key.Matches(msg, keys.Toggle):
			return t, t.opCmd("toggle", t.engine.Toggle)
		case key.Matches(msg, keys.Reset):
			return t, t.opCmd("reset", t.engine.Reset)
		case key.Matches(msg, keys.Task):
			if t.editable() {
				return t.showTaskForm()
			}
		case key.Matches(msg, keys.Left):
			if t.editable() && t.editMinutes > 0 {
				t.editMinutes = maxInt(1, t.editMinutes-5)
			}
			return t, nil
		case key.Matches(msg, keys.Right):
			if t.editable() && t.editMinutes > 0 {
				t.editMinutes = minInt(120, t.editMinutes+5)
			}
			return t, nil
		}
	}
	return t, nil
}

func (t timerModel) startCmd() tea.Cmd {
	opts := timer.StartOptions{Task: t.state.CurrentTask, TaskID: t.state.CurrentTaskID}
	if t.editable() {
		opts.FocusMinutes = t.editMinutes
		opts.Task = *t.taskLabel
	}
	return func() tea.Msg {
		if err := t.engine.Start(opts); err != nil {
			return statusMsg{text: fmt.Sprintf("Start: %v", err), isError: true}
		}
		return nil
	}
}

func (t timerModel) opCmd(name string, op func() error) tea.Cmd {
	return func() tea.Msg {
		if err := op(); err != nil {
			return statusMsg{text: fmt.Sprintf("%s: %v", name, err), isError: true}
		}
		return nil
	}
}

func (t timerModel) showTaskForm() (timerModel, tea.Cmd) {
	*t.taskLabel = t.state.CurrentTask
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("What are you working on?").Value(t.taskLabel),
		),
	)
	t.formActive = true
	return t, t.form.Init()
}

func (t timerModel) updateForm(msg tea.Msg) (timerModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, keys.Back) {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}
	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		// Staged label is picked up by the next Start.
		return t, nil
	}
	return t, cmd
}

func (t timerModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		return activePanelStyle.Width(w).Render(t.form.View())
	}

	remaining := timer.Remaining(t.state, time.Now())
	if t.editable() && t.editMinutes > 0 {
		remaining = t.editMinutes * 60
	}

	clock := clockStyle
	if t.state.IsPaused {
		clock = clockPausedStyle
	}
	display := clock.Width(w - 6).Render(renderBigClock(remaining))

	phase := phaseStyle(t.state.Phase).Bold(true).Render(tr(phaseKey(t.state.Phase)))
	status := mutedStyle.Render(t.statusText())
	cycles := mutedStyle.Render(tr("cycles_completed", strconv.Itoa(t.state.CompletedFocusCount)))

	task := ""
	if !t.state.Phase.IsBreak() && t.state.CurrentTask != "" {
		task = highlightStyle.Render("» " + t.state.CurrentTask)
	}

	rows := []string{
		display,
		phase,
		status,
		t.renderProgress(),
		cycles,
	}
	if task != "" {
		rows = append(rows, task)
	}
	rows = append(rows, "", t.renderTodayStats(), "", t.renderControls())

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, rows...),
	)
}

func (t timerModel) statusText() string {
	switch {
	case t.state.IsRunning && !t.state.IsPaused:
		return tr(statusKey(t.state.Phase))
	case t.state.IsPaused:
		return tr("status_paused")
	case t.state.RemainingSeconds == t.state.TotalSeconds:
		return tr("status_ready")
	default:
		return tr("status_waiting")
	}
}

// renderProgress draws one dot per focus phase in the current
// long-break cycle.
func (t timerModel) renderProgress() string {
	interval := t.settings.LongBreakInterval
	if interval < 1 {
		return ""
	}
	done := t.state.CompletedFocusCount % interval

	var parts []string
	for i := 0; i < interval; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && t.state.Phase == store.PhaseFocus && t.state.IsRunning:
			parts = append(parts, clockStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ")
}

func (t timerModel) renderTodayStats() string {
	now := time.Now()
	today := stats.TodayCount(t.history, now)
	todayMin := stats.TodayMinutes(t.history, now)
	weekMin := stats.TrailingMinutes(t.history, now, 7)
	return mutedStyle.Render(fmt.Sprintf(
		"today %d🍅 · %d min · week %d min", today, todayMin, weekMin,
	))
}

func (t timerModel) renderControls() string {
	if t.state.IsRunning && !t.state.IsPaused {
		return mutedStyle.Render("space: pause  r: reset")
	}
	if t.state.IsPaused {
		return mutedStyle.Render("s/space: resume  r: reset")
	}
	if t.editable() {
		return mutedStyle.Render("s: start  ←/→: minutes  t: task  r: reset")
	}
	return mutedStyle.Render("s: start  r: reset")
}

// renderBigClock blows the MM:SS readout up for readability.
func renderBigClock(seconds int) string {
	return "  " + formatClock(seconds) + "  "
}

func phaseKey(p store.Phase) string {
	switch p {
	case store.PhaseShortBreak:
		return "phase_short_break"
	case store.PhaseLongBreak:
		return "phase_long_break"
	default:
		return "phase_focus"
	}
}

func statusKey(p store.Phase) string {
	switch p {
	case store.PhaseShortBreak:
		return "status_short_break"
	case store.PhaseLongBreak:
		return "status_long_break"
	default:
		return "status_focus"
	}
}

func phaseStyle(p store.Phase) lipgloss.Style {
	switch p {
	case store.PhaseShortBreak:
		return breakStyle
	case store.PhaseLongBreak:
		return longBreakStyle
	default:
		return clockStyle
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
