package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"tomato/internal/i18n"
	"tomato/internal/store"
	"tomato/internal/timer"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   store.Settings
	locale     string
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focusMinutes      *string
	shortBreak        *string
	longBreak         *string
	longBreakInterval *string
	autoStartNext     *bool
	notifications     *bool
	sound             *bool
	openPrompt        *bool
	theme             *string
	localeChoice      *string
}

func newSettingsModel(s *store.Store) settingsModel {
	fm, sb, lb, lbi := "", "", "", ""
	auto, notif, sound, prompt := false, true, true, true
	theme, locale := "light", i18n.DefaultLocale
	return settingsModel{
		store:             s,
		focusMinutes:      &fm,
		shortBreak:        &sb,
		longBreak:         &lb,
		longBreakInterval: &lbi,
		autoStartNext:     &auto,
		notifications:     &notif,
		sound:             &sound,
		openPrompt:        &prompt,
		theme:             &theme,
		localeChoice:      &locale,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.Settings()
		locale := s.store.Locale()
		if locale == "" {
			locale = i18n.DefaultLocale
		}
		return settingsDataMsg{settings: settings, locale: locale}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.locale = msg.locale
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.focusMinutes = strconv.Itoa(s.settings.FocusMinutes)
	*s.shortBreak = strconv.Itoa(s.settings.ShortBreakMinutes)
	*s.longBreak = strconv.Itoa(s.settings.LongBreakMinutes)
	*s.longBreakInterval = strconv.Itoa(s.settings.LongBreakInterval)
	*s.autoStartNext = s.settings.AutoStartNext
	*s.notifications = s.settings.NotificationEnabled
	*s.sound = s.settings.SoundEnabled
	*s.openPrompt = s.settings.OpenAlarmPage
	*s.theme = s.settings.Theme
	*s.localeChoice = s.locale

	localeOptions := make([]huh.Option[string], len(i18n.Available))
	for i, loc := range i18n.Available {
		localeOptions[i] = huh.NewOption(loc, loc)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus length (min, 1-180)").Value(s.focusMinutes),
			huh.NewInput().Title("Short break (min, 1-60)").Value(s.shortBreak),
			huh.NewInput().Title("Long break (min, 1-90)").Value(s.longBreak),
			huh.NewInput().Title("Pomodoros before long break (2-8)").Value(s.longBreakInterval),
		).Title("Durations"),
		huh.NewGroup(
			huh.NewConfirm().Title("Auto-start next phase").Value(s.autoStartNext),
			huh.NewConfirm().Title("Notifications").Value(s.notifications),
			huh.NewConfirm().Title("Sound").Value(s.sound),
			huh.NewConfirm().Title("Prompt when a phase ends").Value(s.openPrompt),
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Light", "light"),
					huh.NewOption("Dark", "dark"),
				).Value(s.theme),
			huh.NewSelect[string]().Title("Language").Options(localeOptions...).Value(s.localeChoice),
		).Title("Behavior"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("save settings: %v", err), isError: true}
			}
		}
		return s, s.refresh()
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	cfg := s.settings
	if n, err := strconv.Atoi(*s.focusMinutes); err == nil {
		cfg.FocusMinutes = n
	}
	if n, err := strconv.Atoi(*s.shortBreak); err == nil {
		cfg.ShortBreakMinutes = n
	}
	if n, err := strconv.Atoi(*s.longBreak); err == nil {
		cfg.LongBreakMinutes = n
	}
	if n, err := strconv.Atoi(*s.longBreakInterval); err == nil {
		cfg.LongBreakInterval = n
	}
	cfg.AutoStartNext = *s.autoStartNext
	cfg.NotificationEnabled = *s.notifications
	cfg.SoundEnabled = *s.sound
	cfg.OpenAlarmPage = *s.openPrompt
	cfg.Theme = *s.theme

	cfg = timer.ClampSettings(cfg)
	if err := s.store.SaveSettings(cfg); err != nil {
		return err
	}
	if *s.localeChoice != s.locale {
		return s.store.SetLocale(*s.localeChoice)
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	rows := []string{title, ""}
	line := func(label, value string) string {
		return fmt.Sprintf("  %s %s",
			lipgloss.NewStyle().Width(28).Render(label),
			highlightStyle.Render(value),
		)
	}
	rows = append(rows,
		line("Focus length", fmt.Sprintf("%d min", s.settings.FocusMinutes)),
		line("Short break", fmt.Sprintf("%d min", s.settings.ShortBreakMinutes)),
		line("Long break", fmt.Sprintf("%d min", s.settings.LongBreakMinutes)),
		line("Long break interval", fmt.Sprintf("every %d", s.settings.LongBreakInterval)),
		line("Auto-start next phase", onOff(s.settings.AutoStartNext)),
		line("Notifications", onOff(s.settings.NotificationEnabled)),
		line("Sound", onOff(s.settings.SoundEnabled)),
		line("Prompt when a phase ends", onOff(s.settings.OpenAlarmPage)),
		line("Theme", s.settings.Theme),
		line("Language", s.locale),
	)

	rows = append(rows, "", hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
