package tui

import (
	"fmt"
	"sort"
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

var taskCategories = []string{"work", "study", "personal", "other"}
var taskPriorities = []string{"high", "medium", "low"}

// tasksModel is the task list: CRUD over the persisted task records
// plus "start a focus phase against this task".
type tasksModel struct {
	store  *store.Store
	engine *timer.Engine
	width  int
	height int

	tasks      []store.Task
	spent      map[string]int
	cursor     int
	showDone   bool

	formActive bool
	form       *huh.Form
	editingID  int64 // 0 = creating

	// Form field pointers (survive value copies)
	formTitle    *string
	formDesc     *string
	formCategory *string
	formPriority *string
	formEstimate *string
}

func newTasksModel(s *store.Store, e *timer.Engine) tasksModel {
	title, desc, cat, prio, est := "", "", taskCategories[0], "medium", ""
	return tasksModel{
		store:        s,
		engine:       e,
		formTitle:    &title,
		formDesc:     &desc,
		formCategory: &cat,
		formPriority: &prio,
		formEstimate: &est,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, _ := m.store.Tasks()
		history, _ := m.store.History()
		return tasksDataMsg{tasks: tasks, spent: stats.TaskMinutes(history)}
	}
}

// visibleTasks orders pinned first, then by priority, then newest.
func (m tasksModel) visibleTasks() []store.Task {
	var out []store.Task
	for _, t := range m.tasks {
		if !m.showDone && t.Completed {
			continue
		}
		out = append(out, t)
	}
	rank := map[string]int{"high": 0, "medium": 1, "low": 2}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		if rank[out[i].Priority] != rank[out[j].Priority] {
			return rank[out[i].Priority] < rank[out[j].Priority]
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.tasks = msg.tasks
		m.spent = msg.spent
		if n := len(m.visibleTasks()); m.cursor >= n {
			m.cursor = maxInt(0, n-1)
		}
		return m, nil

	case tea.KeyMsg:
		visible := m.visibleTasks()
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(visible)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if m.cursor < len(visible) {
				t := visible[m.cursor]
				return m.showForm(&t)
			}
		case key.Matches(msg, keys.Delete):
			if m.cursor < len(visible) {
				return m, m.mutate(func(tasks []store.Task) []store.Task {
					i := store.FindTask(tasks, visible[m.cursor].ID)
					if i < 0 {
						return tasks
					}
					return append(tasks[:i], tasks[i+1:]...)
				})
			}
		case key.Matches(msg, keys.Done):
			if m.cursor < len(visible) {
				id := visible[m.cursor].ID
				return m, m.mutate(func(tasks []store.Task) []store.Task {
					if i := store.FindTask(tasks, id); i >= 0 {
						tasks[i].Completed = !tasks[i].Completed
						if tasks[i].Completed {
							now := time.Now()
							tasks[i].CompletedAt = &now
						} else {
							tasks[i].CompletedAt = nil
						}
					}
					return tasks
				})
			}
		case key.Matches(msg, keys.Pin):
			if m.cursor < len(visible) {
				id := visible[m.cursor].ID
				return m, m.mutate(func(tasks []store.Task) []store.Task {
					if i := store.FindTask(tasks, id); i >= 0 {
						tasks[i].Pinned = !tasks[i].Pinned
					}
					return tasks
				})
			}
		case key.Matches(msg, keys.Focus), key.Matches(msg, keys.Enter):
			if m.cursor < len(visible) {
				task := visible[m.cursor]
				return m, func() tea.Msg {
					if err := m.engine.StartTask(task); err != nil {
						return statusMsg{text: fmt.Sprintf("start task: %v", err), isError: true}
					}
					return statusMsg{text: "Focus staged: " + task.Title}
				}
			}
		case key.Matches(msg, keys.Task):
			m.showDone = !m.showDone
			m.cursor = 0
		}
	}
	return m, nil
}

// mutate applies fn to the freshly read task list and persists the
// result. Read-before-write: the local cache is never the write base.
func (m tasksModel) mutate(fn func([]store.Task) []store.Task) tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.store.Tasks()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("read tasks: %v", err), isError: true}
		}
		if err := m.store.SaveTasks(fn(tasks)); err != nil {
			return statusMsg{text: fmt.Sprintf("save tasks: %v", err), isError: true}
		}
		return nil
	}
}

func (m tasksModel) showForm(editing *store.Task) (tasksModel, tea.Cmd) {
	if editing != nil {
		*m.formTitle = editing.Title
		*m.formDesc = editing.Description
		*m.formCategory = editing.Category
		*m.formPriority = editing.Priority
		*m.formEstimate = ""
		if editing.EstimatedMinutes != nil {
			*m.formEstimate = strconv.Itoa(*editing.EstimatedMinutes)
		}
		m.editingID = editing.ID
	} else {
		*m.formTitle = ""
		*m.formDesc = ""
		*m.formCategory = taskCategories[0]
		*m.formPriority = "medium"
		*m.formEstimate = ""
		m.editingID = 0
	}

	catOptions := make([]huh.Option[string], len(taskCategories))
	for i, c := range taskCategories {
		catOptions[i] = huh.NewOption(c, c)
	}
	prioOptions := make([]huh.Option[string], len(taskPriorities))
	for i, p := range taskPriorities {
		prioOptions[i] = huh.NewOption(p, p)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewInput().Title("Description").Value(m.formDesc),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(m.formCategory),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(m.formPriority),
			huh.NewInput().Title("Estimated minutes (optional)").Value(m.formEstimate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.formActive = false
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		if *m.formTitle == "" {
			return m, nil
		}

		var estimate *int
		if n, err := strconv.Atoi(strings.TrimSpace(*m.formEstimate)); err == nil && n > 0 {
			estimate = &n
		}
		title, desc := *m.formTitle, *m.formDesc
		category, priority := *m.formCategory, *m.formPriority
		editingID := m.editingID

		return m, m.mutate(func(tasks []store.Task) []store.Task {
			if editingID != 0 {
				if i := store.FindTask(tasks, editingID); i >= 0 {
					tasks[i].Title = title
					tasks[i].Description = desc
					tasks[i].Category = category
					tasks[i].Priority = priority
					tasks[i].EstimatedMinutes = estimate
				}
				return tasks
			}
			return append(tasks, store.NewTask(title, desc, category, priority, estimate, time.Now()))
		})
	}

	return m, cmd
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		if m.editingID != 0 {
			title = titleStyle.Render("Edit Task")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Tasks")
	visible := m.visibleTasks()

	if len(visible) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to create one."),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	for i, t := range visible {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		pin := " "
		if t.Pinned {
			pin = "📌"
		}
		prio := priorityStyle(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority))
		est := ""
		if t.EstimatedMinutes != nil {
			est = mutedStyle.Render(fmt.Sprintf(" ~%dm", *t.EstimatedMinutes))
		}
		if spent := m.spent[t.Title]; spent > 0 {
			est += successStyle.Render(fmt.Sprintf(" %dm done", spent))
		}
		row := style.Render(fmt.Sprintf("%s%s %s %s", cursor, mark, pin, t.Title)) +
			"  " + prio + mutedStyle.Render(t.Category) + est
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  c: done  p: pin  f/enter: focus  t: show done"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high":
		return errorStyle
	case "low":
		return mutedStyle
	default:
		return warningStyle
	}
}
