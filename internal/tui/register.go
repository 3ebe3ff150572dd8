package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/session"
)

type registerModel struct {
	session *session.Manager
	width   int
	height  int

	formActive bool
	form       *huh.Form
	submitting bool
	wantLogin  bool

	username *string
	email    *string
	password *string
	confirm  *string
}

func newRegisterModel(sess *session.Manager) registerModel {
	username, email, password, confirm := "", "", "", ""
	return registerModel{
		session:  sess,
		username: &username,
		email:    &email,
		password: &password,
		confirm:  &confirm,
	}
}

func (r *registerModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r registerModel) focus() tea.Cmd {
	*r.username = ""
	*r.email = ""
	*r.password = ""
	*r.confirm = ""
	return nil
}

func (r registerModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(r.username),
			huh.NewInput().Title("Email").Value(r.email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(r.password),
			huh.NewInput().Title("Confirm Password").EchoMode(huh.EchoModePassword).Value(r.confirm),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (r registerModel) update(msg tea.Msg) (registerModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			r.form = r.buildForm()
			r.formActive = true
			return r, r.form.Init()
		case "esc":
			r.wantLogin = true
			return r, nil
		}
	}
	return r, nil
}

func (r registerModel) updateForm(msg tea.Msg) (registerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		r.formActive = false
		r.form = nil
		return r, nil
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		r.form = nil
		r.submitting = true
		return r, r.submit(*r.username, *r.email, *r.password, *r.confirm)
	}

	return r, cmd
}

func (r registerModel) submit(username, email, password, confirm string) tea.Cmd {
	return func() tea.Msg {
		// Client-side checks run before anything is dispatched.
		if username == "" || email == "" || password == "" {
			return statusMsg{text: "All fields are required", isError: true}
		}
		if password != confirm {
			return errStatus(&api.ValidationError{Detail: "passwords do not match"})
		}

		err := r.session.Register(context.Background(), api.RegisterRequest{
			Username: username,
			Email:    email,
			Password: password,
		})
		if err != nil {
			return errStatus(err)
		}
		return registerDoneMsg{username: username}
	}
}

func (r registerModel) view() string {
	w := r.width - 4
	if w < 20 {
		w = 20
	}

	if r.formActive && r.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Create Account"),
			"",
			r.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows,
		titleStyle.Render("Create Account"),
		"",
	)
	if r.submitting {
		rows = append(rows, mutedStyle.Render("Creating account..."))
	} else {
		rows = append(rows,
			highlightStyle.Render("enter")+normalItemStyle.Render(" open form"),
			highlightStyle.Render("esc")+normalItemStyle.Render("   back to sign in"),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return panelStyle.Width(w).Render(content)
}
