package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/session"
)

// accountModel shows the profile and owns the change-password form and
// logout.
type accountModel struct {
	session *session.Manager
	width   int
	height  int

	formActive bool
	form       *huh.Form

	oldPassword *string
	newPassword *string
	confirm     *string
}

func newAccountModel(sess *session.Manager) accountModel {
	oldPw, newPw, confirm := "", "", ""
	return accountModel{
		session:     sess,
		oldPassword: &oldPw,
		newPassword: &newPw,
		confirm:     &confirm,
	}
}

func (a *accountModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

func (a accountModel) update(msg tea.Msg) (accountModel, tea.Cmd) {
	if a.formActive && a.form != nil {
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case passwordChangedMsg:
		return a, func() tea.Msg {
			return statusMsg{text: "Password updated successfully"}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.New): // n opens the password form
			return a.showPasswordForm()
		}
		if msg.String() == "L" {
			return a, func() tea.Msg {
				a.session.Logout()
				return loggedOutMsg{}
			}
		}
	}
	return a, nil
}

func (a accountModel) showPasswordForm() (accountModel, tea.Cmd) {
	*a.oldPassword = ""
	*a.newPassword = ""
	*a.confirm = ""

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Old Password").EchoMode(huh.EchoModePassword).Value(a.oldPassword),
			huh.NewInput().Title("New Password").EchoMode(huh.EchoModePassword).Value(a.newPassword),
			huh.NewInput().Title("Confirm New Password").EchoMode(huh.EchoModePassword).Value(a.confirm),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.formActive = true
	return a, a.form.Init()
}

func (a accountModel) updateForm(msg tea.Msg) (accountModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		a.formActive = false
		a.form = nil
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		a.formActive = false
		a.form = nil
		oldPw, newPw, confirm := *a.oldPassword, *a.newPassword, *a.confirm
		return a, func() tea.Msg {
			// The confirmation check runs client-side, before dispatch.
			if err := a.session.ChangePassword(context.Background(), oldPw, newPw, confirm); err != nil {
				return errStatus(err)
			}
			return passwordChangedMsg{}
		}
	}

	return a, cmd
}

func (a accountModel) view() string {
	w := a.width - 4
	if w < 20 {
		w = 20
	}

	if a.formActive && a.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Change Password"),
			"",
			a.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	user := a.session.CurrentUser()
	if user == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Not signed in"))
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Account"))
	rows = append(rows, "")
	rows = append(rows, "  "+mutedStyle.Render(fmt.Sprintf("%-12s", "Username"))+" "+normalItemStyle.Render(user.Username))
	rows = append(rows, "  "+mutedStyle.Render(fmt.Sprintf("%-12s", "Email"))+" "+normalItemStyle.Render(user.Email))
	rows = append(rows, "  "+mutedStyle.Render(fmt.Sprintf("%-12s", "Role"))+" "+highlightStyle.Render(string(user.Role)))
	rows = append(rows, "  "+mutedStyle.Render(fmt.Sprintf("%-12s", "Points"))+" "+warningStyle.Render(fmt.Sprintf("%d", user.Points)))
	rows = append(rows, "  "+mutedStyle.Render(fmt.Sprintf("%-12s", "Streak"))+" "+errorStyle.Render(fmt.Sprintf("%d days", user.StudyStreak)))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: change password  L: log out"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
