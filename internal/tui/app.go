package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tomato/internal/export"
	"tomato/internal/i18n"
	"tomato/internal/store"
	"tomato/internal/timer"
)

// translate is the process-wide message catalog, swapped when the
// locale setting changes. Views call tr directly.
var translate = func() *i18n.Bundle {
	b, _ := i18n.Load(i18n.DefaultLocale)
	return b
}()

func tr(key string, subs ...string) string {
	return translate.T(key, subs...)
}

// SetLocale reloads the catalog used by tr.
func SetLocale(locale string) error {
	b, err := i18n.Load(locale)
	if err != nil {
		return err
	}
	translate = b
	return nil
}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer        timerModel
	tasks        tasksModel
	stats        statsModel
	achievements achievementsModel
	settings     settingsModel
	prompt       promptModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, e *timer.Engine) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:        s,
		activeView:   viewTimer,
		timer:        newTimerModel(s, e),
		tasks:        newTasksModel(s, e),
		stats:        newStatsModel(s),
		achievements: newAchievementsModel(s),
		settings:     newSettingsModel(s),
		prompt:       newPromptModel(s, e),
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.timer.refresh(),
		a.reloadLocale(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) reloadLocale() tea.Cmd {
	return func() tea.Msg {
		locale := a.store.Locale()
		if locale == "" {
			locale = i18n.DefaultLocale
		}
		if err := SetLocale(locale); err != nil {
			return statusMsg{text: fmt.Sprintf("locale %q: %v", locale, err), isError: true}
		}
		return nil
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.achievements.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// The completion prompt swallows input while visible.
		if a.prompt.visible() {
			var cmd tea.Cmd
			a.prompt, cmd = a.prompt.update(msg)
			return a, cmd
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, a.timer.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, a.stats.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewAchievements
			return a, a.achievements.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			if a.activeView == viewStats {
				// Stats uses tab to cycle periods.
				return a.updateActiveView(msg)
			}
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case StoreChangedMsg:
		return a, a.routeChange(msg.Change)

	case PromptMsg:
		completion := msg.Completion
		a.prompt.completion = &completion
		return a, nil

	case promptClearedMsg:
		a.prompt.completion = nil
		return a, nil

	case NotifyMsg:
		a.status = msg.Title
		if msg.Body != "" {
			a.status += " · " + msg.Body
		}
		if msg.Bell {
			return a, ringBell
		}
		return a, nil

	case UnlockMsg:
		name := tr(msg.Achievement.NameKey)
		a.status = tr("notification_achievement_unlocked") + ": " + msg.Achievement.Icon + " " + name
		return a, tea.Batch(ringBell, a.achievements.refresh())

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// routeChange maps a store mutation to the views that render that key.
func (a App) routeChange(ch store.Change) tea.Cmd {
	var cmds []tea.Cmd
	switch ch.Key {
	case store.KeySettings:
		cmds = append(cmds, a.timer.refresh(), a.settings.refresh())
	case store.KeyTimerState:
		cmds = append(cmds, a.timer.refresh())
	case store.KeyHistory:
		cmds = append(cmds, a.timer.refresh(), a.stats.refresh(), a.tasks.refresh())
	case store.KeyLastCompletion:
		cmds = append(cmds, a.promptChangeCmd(ch))
	case store.KeyAchievements:
		cmds = append(cmds, a.achievements.refresh())
	case store.KeyTasks:
		cmds = append(cmds, a.tasks.refresh())
	case store.KeyLocale:
		cmds = append(cmds, a.reloadLocale(), a.settings.refresh())
	}
	return tea.Batch(cmds...)
}

type promptClearedMsg struct{}

// promptChangeCmd closes the prompt overlay when any process clears
// the completion record.
func (a App) promptChangeCmd(ch store.Change) tea.Cmd {
	if ch.New != nil && string(ch.New) != "null" {
		return nil
	}
	return func() tea.Msg {
		return promptClearedMsg{}
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewAchievements:
		a.achievements, cmd = a.achievements.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.formActive
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimer:
		return a.timer.refresh()
	case viewTasks:
		return a.tasks.refresh()
	case viewStats:
		return a.stats.refresh()
	case viewAchievements:
		return a.achievements.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func ringBell() tea.Msg {
	os.Stdout.WriteString("\a")
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewTasks:
		content = a.tasks.view()
	case viewStats:
		content = a.stats.view()
	case viewAchievements:
		content = a.achievements.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.prompt.visible() {
		content = a.prompt.view(a.width)
	}
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("🍅 tomato")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Countdown indicator shown on every tab.
	timerInfo := ""
	if a.timer.state.IsRunning {
		remaining := timer.Remaining(a.timer.state, time.Now())
		if a.timer.state.IsPaused {
			timerInfo = warningStyle.Render(" ⏸ " + formatClock(remaining))
		} else {
			timerInfo = successStyle.Render(" ● " + formatClock(remaining))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		history, err := a.store.History()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("tomato-export-%s.csv", dateStr))
			if err := export.ToCSV(history, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("tomato-export-%s.json", dateStr))
			if err := export.ToJSON(history, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
