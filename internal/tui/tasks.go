package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/planner"
)

var priorities = []string{"low", "medium", "high"}

// tasksModel is the task list: filter/sort cycling, creation, completion
// toggling and confirmed deletion. Filtering and sorting are reapplied from
// the store's collection on every render; nothing is cached.
type tasksModel struct {
	store  *planner.Store
	width  int
	height int

	cursor int
	filter planner.Filter
	sortBy planner.SortBy

	formActive    bool
	form          *huh.Form
	confirmActive bool
	confirmForm   *huh.Form
	pendingDelete api.Task

	formTitle    *string
	formDesc     *string
	formSubject  *int64
	formPriority *string
	formDueDate  *string
	confirmed    *bool
}

func newTasksModel(store *planner.Store) tasksModel {
	title, desc, dueDate := "", "", ""
	var subject int64
	priority := "medium"
	confirmed := false
	return tasksModel{
		store:        store,
		filter:       planner.FilterAll,
		sortBy:       planner.SortByDueDate,
		formTitle:    &title,
		formDesc:     &desc,
		formSubject:  &subject,
		formPriority: &priority,
		formDueDate:  &dueDate,
		confirmed:    &confirmed,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// visible is the filtered, sorted projection of the current collection.
func (t tasksModel) visible() []api.Task {
	return planner.ApplyView(t.store.Tasks(), t.filter, t.sortBy)
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}
	if t.confirmActive && t.confirmForm != nil {
		return t.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case taskCreatedMsg:
		return t, func() tea.Msg {
			return statusMsg{text: "Task created: " + msg.task.Title}
		}

	case taskUpdatedMsg:
		// A toggle can remove the row from the current filter view.
		visible := t.visible()
		if t.cursor >= len(visible) {
			t.cursor = max(0, len(visible)-1)
		}
		text := "Task reopened"
		if msg.task.Completed {
			text = "Task completed"
		}
		return t, func() tea.Msg { return statusMsg{text: text} }

	case taskDeletedMsg:
		visible := t.visible()
		if t.cursor >= len(visible) {
			t.cursor = max(0, len(visible)-1)
		}
		return t, func() tea.Msg { return statusMsg{text: "Task deleted"} }

	case tea.KeyMsg:
		return t.updateList(msg)
	}
	return t, nil
}

func (t tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	visible := t.visible()
	// The collection can shrink between keypresses (toggle under a filter,
	// server refresh); never index with a cursor past the end.
	if t.cursor >= len(visible) {
		t.cursor = max(0, len(visible)-1)
	}
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < len(visible)-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Filter):
		t.filter = nextFilter(t.filter)
		t.cursor = 0
	case key.Matches(msg, keys.Sort):
		if t.sortBy == planner.SortByDueDate {
			t.sortBy = planner.SortByPriority
		} else {
			t.sortBy = planner.SortByDueDate
		}
		t.cursor = 0
	case key.Matches(msg, keys.New):
		return t.showTaskForm()
	case key.Matches(msg, keys.Toggle):
		if len(visible) == 0 {
			return t, nil
		}
		task := visible[t.cursor]
		return t, func() tea.Msg {
			updated, err := t.store.ToggleComplete(context.Background(), task)
			if err != nil {
				return errStatus(err)
			}
			return taskUpdatedMsg{task: updated}
		}
	case key.Matches(msg, keys.Delete):
		if len(visible) == 0 {
			return t, nil
		}
		return t.showConfirm(visible[t.cursor])
	}
	return t, nil
}

func nextFilter(f planner.Filter) planner.Filter {
	switch f {
	case planner.FilterAll:
		return planner.FilterPending
	case planner.FilterPending:
		return planner.FilterCompleted
	default:
		return planner.FilterAll
	}
}

func (t tasksModel) showTaskForm() (tasksModel, tea.Cmd) {
	subjects := t.store.Subjects()
	if len(subjects) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "No subjects available yet", isError: true}
		}
	}

	*t.formTitle = ""
	*t.formDesc = ""
	*t.formSubject = subjects[0].ID
	*t.formPriority = "medium"
	*t.formDueDate = ""

	subjectOptions := make([]huh.Option[int64], len(subjects))
	for i, s := range subjects {
		subjectOptions[i] = huh.NewOption(s.Name, s.ID)
	}
	priorityOptions := make([]huh.Option[string], len(priorities))
	for i, p := range priorities {
		priorityOptions[i] = huh.NewOption(p, p)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.formTitle),
			huh.NewInput().Title("Description").Value(t.formDesc),
			huh.NewSelect[int64]().Title("Subject").Options(subjectOptions...).Value(t.formSubject),
			huh.NewSelect[string]().Title("Priority").Options(priorityOptions...).Value(t.formPriority),
			huh.NewInput().Title("Due Date (YYYY-MM-DD, optional)").Value(t.formDueDate).
				Validate(validateDueDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func validateDueDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
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
		if *t.formTitle == "" {
			return t, func() tea.Msg {
				return statusMsg{text: "Title is required", isError: true}
			}
		}
		req := api.CreateTaskRequest{
			Title:       *t.formTitle,
			Description: *t.formDesc,
			Subject:     *t.formSubject,
			Priority:    *t.formPriority,
			DueDate:     *t.formDueDate,
		}
		return t, func() tea.Msg {
			task, err := t.store.CreateTask(context.Background(), req)
			if err != nil {
				return errStatus(err)
			}
			return taskCreatedMsg{task: task}
		}
	}

	return t, cmd
}

func (t tasksModel) showConfirm(task api.Task) (tasksModel, tea.Cmd) {
	*t.confirmed = false
	t.pendingDelete = task
	t.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete task %q?", task.Title)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(t.confirmed),
		),
	).WithShowHelp(true)
	t.confirmActive = true
	return t, t.confirmForm.Init()
}

func (t tasksModel) updateConfirm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.confirmActive = false
		t.confirmForm = nil
		return t, nil
	}

	form, cmd := t.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.confirmForm = f
	}

	if t.confirmForm.State == huh.StateCompleted {
		t.confirmActive = false
		t.confirmForm = nil
		if !*t.confirmed {
			return t, nil
		}
		id := t.pendingDelete.ID
		return t, func() tea.Msg {
			if err := t.store.DeleteTask(context.Background(), id); err != nil {
				return errStatus(err)
			}
			return taskDeletedMsg{id: id}
		}
	}

	return t, cmd
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Add New Task"),
			"",
			t.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}
	if t.confirmActive && t.confirmForm != nil {
		return activePanelStyle.Width(w).Render(t.confirmForm.View())
	}

	visible := t.visible()

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("My Tasks"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d tasks · filter: %s · sort: %s", len(visible), t.filter, t.sortBy)),
	)

	if len(visible) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("Nothing here. Press n to add a task or f to change the filter."),
		))
	}

	var rows []string
	rows = append(rows, header)
	rows = append(rows, "")

	for i, task := range visible {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		check := "[ ]"
		title := style.Render(task.Title)
		if task.Completed {
			check = successStyle.Render("[✓]")
			if i != t.cursor {
				title = completedItemStyle.Render(task.Title)
			}
		}

		badge := lipgloss.NewStyle().Foreground(priorityColors[task.Priority]).Render(strings.ToUpper(task.Priority))

		meta := ""
		if task.SubjectName != "" {
			meta += "  " + mutedStyle.Render(task.SubjectName)
		}
		if task.DueDate != "" {
			meta += "  " + mutedStyle.Render("due "+task.DueDate)
		}
		if task.UserRole == api.RoleAdmin {
			meta += "  " + warningStyle.Render("ASSIGNMENT")
		}

		rows = append(rows, fmt.Sprintf("%s%s %s %s%s", cursor, check, badge, title, meta))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  c: toggle done  d: delete  f: filter  s: sort"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
