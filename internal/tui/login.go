package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/session"
)

type loginModel struct {
	session *session.Manager
	width   int
	height  int

	formActive   bool
	form         *huh.Form
	submitting   bool
	wantRegister bool

	username *string
	password *string
}

func newLoginModel(sess *session.Manager) loginModel {
	username, password := "", ""
	return loginModel{
		session:  sess,
		username: &username,
		password: &password,
	}
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

// focus rebuilds the form with cleared fields and grabs input.
func (l loginModel) focus() tea.Cmd {
	*l.username = ""
	*l.password = ""
	return nil
}

func (l loginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(l.username),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(l.password),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			l.form = l.buildForm()
			l.formActive = true
			return l, l.form.Init()
		case "n":
			l.wantRegister = true
			return l, nil
		}
	}
	return l, nil
}

func (l loginModel) updateForm(msg tea.Msg) (loginModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		l.formActive = false
		l.form = nil
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.form = nil
		l.submitting = true
		return l, l.submit(*l.username, *l.password)
	}

	return l, cmd
}

func (l loginModel) submit(username, password string) tea.Cmd {
	return func() tea.Msg {
		if username == "" || password == "" {
			return statusMsg{text: "Username and password are required", isError: true}
		}
		if err := l.session.Login(context.Background(), username, password); err != nil {
			return errStatus(err)
		}
		return loginDoneMsg{user: l.session.CurrentUser()}
	}
}

func (l loginModel) view() string {
	w := l.width - 4
	if w < 20 {
		w = 20
	}

	if l.formActive && l.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Sign In"),
			"",
			l.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows,
		lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studyplan"),
		mutedStyle.Render("Plan your studies, track your streaks."),
		"",
	)
	if l.submitting {
		rows = append(rows, mutedStyle.Render("Signing in..."))
	} else {
		rows = append(rows,
			highlightStyle.Render("enter")+normalItemStyle.Render(" sign in"),
			highlightStyle.Render("n")+normalItemStyle.Render("     create account"),
			highlightStyle.Render("q")+normalItemStyle.Render("     quit"),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return panelStyle.Width(w).Render(content)
}
