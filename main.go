package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tomato/internal/achievements"
	"tomato/internal/alarm"
	"tomato/internal/debug"
	"tomato/internal/i18n"
	"tomato/internal/store"
	"tomato/internal/timer"
	"tomato/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := s.Watch(); err != nil {
		debug.Errorf("watch", err)
	}

	// Hooks can fire from alarm and achievement goroutines before the
	// program exists. The relay buffers those messages and replays
	// them once the program is attached.
	relay := tui.NewRelay()
	send := relay.Send

	checker := achievements.NewChecker(s, func(a achievements.Achievement) {
		send(tui.UnlockMsg{Achievement: a})
	})

	var engine *timer.Engine
	alarms := alarm.NewScheduler(func(name string) {
		if name != timer.TimerAlarmName {
			return
		}
		if err := engine.HandleCompletion(); err != nil {
			debug.Errorf("handle completion", err)
		}
	})
	defer alarms.Stop()

	engine = timer.New(s, alarms, timer.WithHooks(timer.Hooks{
		PhaseCompleted: func(lc store.LastCompletion) {
			cfg, err := s.Settings()
			if err != nil {
				cfg = store.DefaultSettings()
			}
			send(tui.NotifyMsg{
				Title: notificationText(s, lc),
				Bell:  cfg.SoundEnabled,
			})
		},
		OpenPrompt: func(lc store.LastCompletion) {
			send(tui.PromptMsg{Completion: lc})
		},
		CheckAchievements: func(history []store.HistoryEntry) {
			if err := checker.Check(history); err != nil {
				debug.Errorf("check achievements", err)
			}
		},
	}))

	if err := engine.EnsureInitialized(); err != nil {
		fmt.Fprintf(os.Stderr, "error initializing timer: %v\n", err)
		os.Exit(1)
	}

	unsubscribe := s.Subscribe(func(ch store.Change) {
		send(tui.StoreChangedMsg{Change: ch})
	})
	defer unsubscribe()

	app := tui.NewApp(s, engine)
	p := tea.NewProgram(app, tea.WithAltScreen())
	relay.Attach(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// notificationText picks the completion banner in the configured
// locale. Sound preference maps to the terminal bell, so the text is
// all that varies here.
func notificationText(s *store.Store, lc store.LastCompletion) string {
	locale := s.Locale()
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	b, err := i18n.Load(locale)
	if err != nil {
		b, _ = i18n.Load(i18n.DefaultLocale)
	}

	switch {
	case lc.CompletedPhase == store.PhaseFocus && lc.NextPhase == store.PhaseLongBreak:
		return b.T("notification_focus_complete_long")
	case lc.CompletedPhase == store.PhaseFocus:
		return b.T("notification_focus_complete")
	default:
		return b.T("notification_break_complete")
	}
}
