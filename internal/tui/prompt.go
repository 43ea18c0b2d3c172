package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tomato/internal/store"
	"tomato/internal/timer"
)

// promptModel is the completion decision prompt, shown as an overlay
// when a phase finishes. It renders the LastCompletion record and
// offers start-next, a five-minute extension, and (after focus) a
// break skip. Any explicit start clears the record, which closes the
// prompt in every process observing the store.
type promptModel struct {
	store      *store.Store
	engine     *timer.Engine
	completion *store.LastCompletion
}

var promptKeys = struct {
	Next   key.Binding
	Extend key.Binding
	Skip   key.Binding
}{
	Next: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "start next"),
	),
	Extend: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "5 more minutes"),
	),
	Skip: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "skip break"),
	),
}

func newPromptModel(s *store.Store, e *timer.Engine) promptModel {
	return promptModel{store: s, engine: e}
}

func (p promptModel) visible() bool {
	return p.completion != nil
}

func (p promptModel) update(msg tea.Msg) (promptModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || p.completion == nil {
		return p, nil
	}

	autoStarted := p.completion.AutoStarted

	switch {
	case key.Matches(keyMsg, promptKeys.Next):
		if autoStarted {
			return p.dismiss(p.clearCmd())
		}
		return p.dismiss(p.opCmd("start next", p.engine.StartNext))
	case key.Matches(keyMsg, promptKeys.Extend):
		return p.dismiss(p.opCmd("extend", p.engine.Extend))
	case key.Matches(keyMsg, promptKeys.Skip):
		if p.completion.CompletedPhase == store.PhaseFocus && !autoStarted {
			return p.dismiss(p.opCmd("skip break", p.engine.SkipBreak))
		}
	case key.Matches(keyMsg, keys.Back):
		// Clearing the record closes the prompt in every process.
		return p.dismiss(p.clearCmd())
	}
	return p, nil
}

func (p promptModel) clearCmd() tea.Cmd {
	return func() tea.Msg {
		if err := p.store.ClearLastCompletion(); err != nil {
			return statusMsg{text: fmt.Sprintf("dismiss: %v", err), isError: true}
		}
		return nil
	}
}

func (p promptModel) dismiss(cmd tea.Cmd) (promptModel, tea.Cmd) {
	p.completion = nil
	return p, cmd
}

func (p promptModel) opCmd(name string, op func() error) tea.Cmd {
	return func() tea.Msg {
		if err := op(); err != nil {
			return statusMsg{text: fmt.Sprintf("%s: %v", name, err), isError: true}
		}
		return nil
	}
}

func (p promptModel) view(width int) string {
	lc := p.completion
	if lc == nil {
		return ""
	}

	var subtitle, suggestion string
	nextLabel := tr(phaseKey(lc.NextPhase))
	if lc.CompletedPhase == store.PhaseFocus {
		subtitle = tr("alarm_focus_complete")
		suggestion = tr("alarm_next_phase_suggestion", tr(phaseKey(lc.CompletedPhase)), nextLabel)
	} else {
		subtitle = tr("alarm_break_complete")
		suggestion = tr("alarm_break_complete_suggestion")
	}

	var controls []string
	if lc.AutoStarted {
		suggestion = tr("alarm_auto_continue")
		controls = append(controls, "enter/esc: close")
	} else {
		controls = append(controls, "enter: "+tr("btn_start_phase", nextLabel))
		controls = append(controls, "m: "+tr("btn_extend"))
		if lc.CompletedPhase == store.PhaseFocus {
			controls = append(controls, "k: "+tr("btn_skip_break"))
		}
		controls = append(controls, "esc: close")
	}

	rows := []string{
		titleStyle.Render("🍅 " + subtitle),
		"",
		suggestion,
	}
	if lc.CompletedTask != "" && lc.CompletedPhase == store.PhaseFocus {
		rows = append(rows, highlightStyle.Render("» "+lc.CompletedTask))
	}
	rows = append(rows, "", mutedStyle.Render(joinControls(controls)))

	return activePanelStyle.Width(width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func joinControls(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "  "
		}
		out += p
	}
	return out
}
