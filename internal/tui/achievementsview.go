package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tomato/internal/achievements"
	"tomato/internal/store"
)

type achievementsModel struct {
	store  *store.Store
	width  int
	height int

	unlocked map[string]store.UnlockRecord
	cursor   int
}

func newAchievementsModel(s *store.Store) achievementsModel {
	return achievementsModel{store: s}
}

func (a *achievementsModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

func (a achievementsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		unlocked, _ := a.store.Achievements()
		return achievementsDataMsg{unlocked: unlocked}
	}
}

func (a achievementsModel) update(msg tea.Msg) (achievementsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case achievementsDataMsg:
		a.unlocked = msg.unlocked
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
		case key.Matches(msg, keys.Down):
			if a.cursor < len(achievements.All)-1 {
				a.cursor++
			}
		}
	}
	return a, nil
}

func (a achievementsModel) view() string {
	w := a.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Achievements"),
		"  ",
		mutedStyle.Render(fmt.Sprintf("%d / %d unlocked", len(a.unlocked), len(achievements.All))),
	)

	var rows []string
	rows = append(rows, header, "")

	for i, ach := range achievements.All {
		cursor := "  "
		if i == a.cursor {
			cursor = "> "
		}

		rec, ok := a.unlocked[ach.ID]
		name := tr(ach.NameKey)
		desc := tr(ach.DescKey)

		var line string
		if ok {
			when := mutedStyle.Render(rec.UnlockedAt.Local().Format("2006-01-02"))
			line = successStyle.Render(fmt.Sprintf("%s%s %s", cursor, ach.Icon, name)) + "  " + when
		} else {
			line = mutedStyle.Render(fmt.Sprintf("%s🔒 %s", cursor, name))
		}
		rows = append(rows, line)

		if i == a.cursor {
			rows = append(rows, mutedStyle.Render("      "+desc))
		}
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
