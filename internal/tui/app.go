package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/planner"
	"github.com/harsha08-2k6/studyplan/internal/session"
	"github.com/harsha08-2k6/studyplan/internal/store"
)

// App is the root Bubble Tea model. It owns the view gate: protected views
// render only when the session manager has resolved restore and published a
// user; while restoring it shows a placeholder, and an anonymous session
// lands on the login view. The gate never admits content while restore is
// pending, even if a user value happens to already be set.
type App struct {
	session *session.Manager
	planner *planner.Store
	local   *store.Store

	width  int
	height int

	activeView viewState
	showHelp   bool
	restored   bool

	login     loginModel
	register  registerModel
	dashboard dashboardModel
	tasks     tasksModel
	pomodoro  pomodoroModel
	account   accountModel

	help   help.Model
	status string
	isErr  bool
}

func NewApp(sess *session.Manager, pl *planner.Store, local *store.Store) App {
	h := help.New()
	h.ShowAll = false

	return App{
		session:    sess,
		planner:    pl,
		local:      local,
		activeView: viewLogin,
		login:      newLoginModel(sess),
		register:   newRegisterModel(sess),
		dashboard:  newDashboardModel(sess, pl),
		tasks:      newTasksModel(pl),
		pomodoro:   newPomodoroModel(local),
		account:    newAccountModel(sess),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.restoreCmd(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Restore()
		return sessionRestoredMsg{}
	}
}

// validateCmd re-checks a restored session against the server. An auth
// rejection has already logged the session out by the time the message
// arrives.
func (a App) validateCmd() tea.Cmd {
	return func() tea.Msg {
		if err := a.session.Validate(context.Background()); err != nil {
			if a.session.CurrentUser() == nil {
				return sessionExpiredMsg{}
			}
			return errStatus(err)
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
		a.login.setSize(a.width, contentHeight)
		a.register.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.account.setSize(a.width, contentHeight)
		return a, nil

	case sessionRestoredMsg:
		a.restored = true
		if a.session.Authenticated() {
			a.activeView = viewDashboard
			return a, tea.Batch(a.validateCmd(), a.dashboard.loadData())
		}
		a.activeView = viewLogin
		return a, a.login.focus()

	case sessionExpiredMsg:
		a.activeView = viewLogin
		a.status = "Session expired, please log in again"
		a.isErr = true
		a.login.submitting = false
		return a, a.login.focus()

	case loginDoneMsg:
		a.activeView = viewDashboard
		a.status = "Welcome back, " + msg.user.Username
		a.isErr = false
		a.login.submitting = false
		return a, a.dashboard.loadData()

	case registerDoneMsg:
		a.activeView = viewLogin
		a.status = "Account " + msg.username + " created, you can log in now"
		a.isErr = false
		a.register.submitting = false
		return a, a.login.focus()

	case loggedOutMsg:
		a.activeView = viewLogin
		a.status = "Logged out"
		a.isErr = false
		a.login.submitting = false
		return a, a.login.focus()

	case refreshMsg:
		// Apply refuses snapshots made stale by a newer refresh.
		if !a.planner.Apply(msg.snap) {
			return a, nil
		}
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		a.login.submitting = false
		a.register.submitting = false
		return a, nil

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		// Child forms capture input first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		if !a.gateOpen() {
			switch {
			case key.Matches(msg, keys.Quit):
				return a, tea.Quit
			}
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Refresh):
			return a, a.dashboard.loadData()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewPomodoro
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewAccount
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = nextProtectedView(a.activeView)
			return a, a.refreshCurrentView()
		}
	}

	return a.updateActiveView(msg)
}

func nextProtectedView(v viewState) viewState {
	for i, pv := range protectedViews {
		if pv == v {
			return protectedViews[(i+1)%len(protectedViews)]
		}
	}
	return viewDashboard
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewLogin:
		a.login, cmd = a.login.update(msg)
		if a.login.wantRegister {
			a.login.wantRegister = false
			a.activeView = viewRegister
			return a, a.register.focus()
		}
	case viewRegister:
		a.register, cmd = a.register.update(msg)
		if a.register.wantLogin {
			a.register.wantLogin = false
			a.activeView = viewLogin
			return a, a.login.focus()
		}
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewAccount:
		a.account, cmd = a.account.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewLogin:
		return a.login.formActive
	case viewRegister:
		return a.register.formActive
	case viewTasks:
		return a.tasks.formActive || a.tasks.confirmActive
	case viewDashboard:
		return a.dashboard.formActive || a.dashboard.confirmActive
	case viewAccount:
		return a.account.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard, viewTasks:
		return a.dashboard.loadData()
	}
	return nil
}

// gateOpen reports whether protected content may render: restore must have
// resolved and a user must be published.
func (a App) gateOpen() bool {
	return a.restored && a.session.Authenticated()
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	// Loading placeholder while restore is pending. Never show protected
	// content here, even if a user value is already set.
	if !a.restored {
		return lipgloss.NewStyle().
			Width(a.width).
			Height(a.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(mutedStyle.Render("Loading..."))
	}

	if !a.gateOpen() {
		var content string
		if a.activeView == viewRegister {
			content = a.register.view()
		} else {
			content = a.login.view()
		}
		footer := a.renderStatus()
		return lipgloss.JoinVertical(lipgloss.Left, content, footer)
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewPomodoro:
		content = a.pomodoro.view()
	case viewAccount:
		content = a.account.view()
	default:
		content = a.dashboard.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range protectedViewNames {
		if protectedViews[i] == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studyplan")
	if user := a.session.CurrentUser(); user != nil {
		role := mutedStyle.Render(" " + string(user.Role))
		title += highlightStyle.Render(" · "+user.Username) + role
	}

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

	left := footerStyle.Render(helpView)
	right := a.renderStatus()

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	if a.isErr {
		return errorStyle.Render(" " + a.status)
	}
	return mutedStyle.Render(" " + a.status)
}
