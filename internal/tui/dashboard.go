package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/analytics"
	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/planner"
	"github.com/harsha08-2k6/studyplan/internal/session"
)

// dashboardModel renders the role-differentiated overview. Students get
// their scalar stats, achievements and weekly activity; administrators get
// system aggregates, the user roster and the completion feed.
type dashboardModel struct {
	session *session.Manager
	store   *planner.Store
	width   int
	height  int

	loaded bool
	chart  barchart.Model

	// Admin roster state
	userCursor    int
	formActive    bool
	form          *huh.Form
	confirmActive bool
	confirmForm   *huh.Form
	pendingDelete api.User

	formUsername *string
	formEmail    *string
	formPassword *string
	confirmed    *bool
}

func newDashboardModel(sess *session.Manager, store *planner.Store) dashboardModel {
	username, email, password := "", "", ""
	confirmed := false
	return dashboardModel{
		session:      sess,
		store:        store,
		chart:        barchart.New(40, 8),
		formUsername: &username,
		formEmail:    &email,
		formPassword: &password,
		confirmed:    &confirmed,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

// loadData starts a refresh generation and fetches the role-appropriate
// collections. A result that loses the race to a newer refresh is dropped
// by the root model before it ever reaches Apply.
func (d dashboardModel) loadData() tea.Cmd {
	user := d.session.CurrentUser()
	if user == nil {
		return nil
	}
	role := user.Role
	gen := d.store.StartRefresh()
	return func() tea.Msg {
		snap, err := d.store.Fetch(context.Background(), role, gen)
		if err != nil {
			return errStatus(err)
		}
		return refreshMsg{snap: snap}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateUserForm(msg)
	}
	if d.confirmActive && d.confirmForm != nil {
		return d.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case refreshMsg:
		d.loaded = true
		d.buildChart()
		users := d.store.Users()
		if d.userCursor >= len(users) {
			d.userCursor = max(0, len(users)-1)
		}
		return d, nil

	case userCreatedMsg:
		return d, tea.Batch(
			d.loadData(),
			func() tea.Msg {
				return statusMsg{text: "Student " + msg.user.Username + " created"}
			},
		)

	case userDeletedMsg:
		return d, tea.Batch(
			d.loadData(),
			func() tea.Msg { return statusMsg{text: "User deleted"} },
		)

	case tea.KeyMsg:
		if d.isAdmin() {
			return d.updateRoster(msg)
		}
		switch {
		case key.Matches(msg, keys.Refresh):
			return d, d.loadData()
		}
	}
	return d, nil
}

func (d dashboardModel) isAdmin() bool {
	user := d.session.CurrentUser()
	return user != nil && user.Role == api.RoleAdmin
}

func (d dashboardModel) updateRoster(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	users := d.store.Users()
	switch {
	case key.Matches(msg, keys.Up):
		if d.userCursor > 0 {
			d.userCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.userCursor < len(users)-1 {
			d.userCursor++
		}
	case key.Matches(msg, keys.New):
		return d.showUserForm()
	case key.Matches(msg, keys.Delete):
		if len(users) == 0 {
			return d, nil
		}
		target := users[d.userCursor]
		if target.Role == api.RoleAdmin {
			return d, func() tea.Msg {
				return statusMsg{text: "Admin accounts cannot be deleted", isError: true}
			}
		}
		return d.showConfirm(target)
	case key.Matches(msg, keys.Refresh):
		return d, d.loadData()
	}
	return d, nil
}

func (d dashboardModel) showUserForm() (dashboardModel, tea.Cmd) {
	*d.formUsername = ""
	*d.formEmail = ""
	*d.formPassword = ""

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(d.formUsername),
			huh.NewInput().Title("Email").Value(d.formEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(d.formPassword),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateUserForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		if *d.formUsername == "" || *d.formPassword == "" {
			return d, func() tea.Msg {
				return statusMsg{text: "Username and password are required", isError: true}
			}
		}
		req := api.RegisterRequest{
			Username: *d.formUsername,
			Email:    *d.formEmail,
			Password: *d.formPassword,
			Role:     api.RoleStudent,
		}
		return d, func() tea.Msg {
			user, err := d.store.CreateUser(context.Background(), req)
			if err != nil {
				return errStatus(err)
			}
			return userCreatedMsg{user: user}
		}
	}

	return d, cmd
}

// showConfirm opens the two-phase confirmation gate before the destructive
// call.
func (d dashboardModel) showConfirm(target api.User) (dashboardModel, tea.Cmd) {
	*d.confirmed = false
	d.pendingDelete = target
	d.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete user %s?", target.Username)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(d.confirmed),
		),
	).WithShowHelp(true)
	d.confirmActive = true
	return d, d.confirmForm.Init()
}

func (d dashboardModel) updateConfirm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.confirmActive = false
		d.confirmForm = nil
		return d, nil
	}

	form, cmd := d.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.confirmForm = f
	}

	if d.confirmForm.State == huh.StateCompleted {
		d.confirmActive = false
		d.confirmForm = nil
		if !*d.confirmed {
			return d, nil
		}
		target := d.pendingDelete
		return d, func() tea.Msg {
			if err := d.store.DeleteUser(context.Background(), target); err != nil {
				return errStatus(err)
			}
			return userDeletedMsg{id: target.ID}
		}
	}

	return d, cmd
}

// buildChart rebuilds the weekly activity bars from the server's buckets.
// Counts are fed through unmodified; the max-count floor keeps an empty
// week from flattening the scale.
func (d *dashboardModel) buildChart() {
	weekly := d.store.Weekly()

	chartWidth := d.width/2 - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	d.chart = barchart.New(chartWidth, 8)

	maxCount := analytics.MaxCount(weekly)
	var bars []barchart.BarData
	for _, b := range weekly {
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if b.Count == maxCount && b.Count > 0 {
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		}
		bars = append(bars, barchart.BarData{
			Label: b.Day,
			Values: []barchart.BarValue{
				{Name: b.Day, Value: float64(b.Count), Style: style},
			},
		})
	}

	d.chart.PushAll(bars)
	d.chart.Draw()
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	if d.formActive && d.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Create New Student"),
			"",
			d.form.View(),
		)
		return panelStyle.Width(d.width - 4).Render(content)
	}
	if d.confirmActive && d.confirmForm != nil {
		return activePanelStyle.Width(d.width - 4).Render(d.confirmForm.View())
	}
	if !d.loaded {
		return panelStyle.Width(d.width - 4).Render(mutedStyle.Render("Loading dashboard..."))
	}

	if d.isAdmin() {
		return d.renderAdmin()
	}
	return d.renderStudent()
}

func (d dashboardModel) renderStudent() string {
	w := d.width - 4
	stats := d.store.Stats()
	user := d.session.CurrentUser()

	cards := d.renderStatCards([]statCard{
		{"Total Tasks", fmt.Sprintf("%d", stats.Total), colorInfo},
		{"Completed", fmt.Sprintf("%d", stats.Completed), colorSuccess},
		{"Pending", fmt.Sprintf("%d", stats.Pending), colorWarning},
		{"High Priority", fmt.Sprintf("%d", stats.HighPriority), colorError},
	})

	rate := analytics.CompletionRate(stats)
	progress := panelStyle.Width(w/2 - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Overall Progress"),
		"",
		renderProgressBar(rate, w/2-10),
		mutedStyle.Render(fmt.Sprintf("%d%% of tasks completed", rate)),
	))

	activity := panelStyle.Width(w/2 - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Weekly Activity"),
		"",
		d.chart.View(),
	))

	middle := lipgloss.JoinHorizontal(lipgloss.Top, progress, activity)

	var achievements string
	if user != nil {
		achievements = d.renderAchievements(user.Points, user.StudyStreak, w)
	}

	recent := d.renderRecentTasks(w)

	return lipgloss.JoinVertical(lipgloss.Left, cards, middle, achievements, recent)
}

func (d dashboardModel) renderAdmin() string {
	w := d.width - 4
	stats := d.store.AdminStats()

	cards := d.renderStatCards([]statCard{
		{"Total Users", fmt.Sprintf("%d", stats.TotalUsers), colorInfo},
		{"System Tasks", fmt.Sprintf("%d", stats.TotalTasks), colorSuccess},
		{"Students", fmt.Sprintf("%d", stats.StudentsCount), colorWarning},
		{"Admins", fmt.Sprintf("%d", stats.AdminsCount), colorError},
	})

	roster := d.renderRoster(w)
	completions := d.renderCompletions(w)

	return lipgloss.JoinVertical(lipgloss.Left, cards, roster, completions)
}

type statCard struct {
	label string
	value string
	color lipgloss.Color
}

func (d dashboardModel) renderStatCards(cards []statCard) string {
	w := (d.width - 4) / len(cards)
	var rendered []string
	for _, c := range cards {
		inner := lipgloss.JoinVertical(lipgloss.Center,
			statValueStyle.Foreground(c.color).Render(c.value),
			mutedStyle.Render(c.label),
		)
		rendered = append(rendered, statCardStyle.Width(w-2).Render(inner))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderProgressBar(percent, width int) string {
	if width < 10 {
		width = 10
	}
	filled := width * percent / 100
	bar := successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	return bar
}

func (d dashboardModel) renderAchievements(points, streak, w int) string {
	var parts []string
	for _, a := range analytics.Achievements(points, streak) {
		if a.Unlocked {
			parts = append(parts, badgeUnlockedStyle.Render("★ "+a.Name))
		} else {
			parts = append(parts, badgeLockedStyle.Render("☆ "+a.Name))
		}
	}
	header := fmt.Sprintf("%s  %s  %s",
		titleStyle.Render("Achievements"),
		warningStyle.Render(fmt.Sprintf("%d pts", points)),
		errorStyle.Render(fmt.Sprintf("%d day streak", streak)),
	)
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		strings.Join(parts, "   "),
	))
}

func (d dashboardModel) renderRecentTasks(w int) string {
	recent := d.store.RecentTasks()
	title := titleStyle.Render("Recent Tasks")

	if len(recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No tasks yet. Start planning!"),
		))
	}

	var rows []string
	rows = append(rows, title)
	for _, t := range recent {
		dot := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render("●")
		name := normalItemStyle.Render(t.Title)
		if t.Completed {
			name = completedItemStyle.Render(t.Title)
		}
		due := ""
		if t.DueDate != "" {
			due = mutedStyle.Render("  due " + t.DueDate)
		}
		rows = append(rows, fmt.Sprintf("  %s %s%s", dot, name, due))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRoster(w int) string {
	users := d.store.Users()
	title := titleStyle.Render("User Management")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-20s %-10s %s", "Username", "Role", "Email")))

	for i, u := range users {
		cursor := "  "
		style := normalItemStyle
		if i == d.userCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		role := fmt.Sprintf("%-10s", u.Role)
		if u.Role == api.RoleAdmin {
			role = errorStyle.Render(role)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-20s ", cursor, u.Username))+
			role+" "+mutedStyle.Render(u.Email))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: add student  d: delete  r: refresh"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderCompletions(w int) string {
	completions := d.store.RecentCompletions()
	title := titleStyle.Render("Recent Completions")

	if len(completions) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No recent student activity."),
		))
	}

	var rows []string
	rows = append(rows, title)
	for _, t := range completions {
		meta := t.SubjectName
		if meta != "" {
			meta += " · "
		}
		meta += t.Priority + " priority"
		rows = append(rows, fmt.Sprintf("  %s %s completed %s",
			successStyle.Render("✓"),
			highlightStyle.Render(t.UserName),
			normalItemStyle.Render(t.Title),
		))
		rows = append(rows, mutedStyle.Render("      "+meta))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
