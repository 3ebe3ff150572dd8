package tui

import (
	"fmt"
	"time"

	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/planner"
)

// viewState represents the currently active view.
type viewState int

const (
	viewLogin viewState = iota
	viewRegister
	viewDashboard
	viewTasks
	viewPomodoro
	viewAccount
)

// Tabs shown once a user is authenticated, in tab-cycle order.
var protectedViews = []viewState{viewDashboard, viewTasks, viewPomodoro, viewAccount}
var protectedViewNames = []string{"Dashboard", "Tasks", "Pomodoro", "Account"}

// --- Messages ---

// sessionRestoredMsg signals that startup restore has resolved, one way or
// the other. The gate admits no protected content before it arrives.
type sessionRestoredMsg struct{}

// sessionExpiredMsg signals that server validation rejected a restored
// session.
type sessionExpiredMsg struct{}

type loginDoneMsg struct {
	user *api.User
}

type registerDoneMsg struct {
	username string
}

type refreshMsg struct {
	snap *planner.Snapshot
}

type taskCreatedMsg struct {
	task api.Task
}

type taskUpdatedMsg struct {
	task api.Task
}

type taskDeletedMsg struct {
	id int64
}

type userCreatedMsg struct {
	user api.User
}

type userDeletedMsg struct {
	id int64
}

type passwordChangedMsg struct{}

type loggedOutMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type focusPhaseMsg struct {
	phase string // "focus", "break"
}

// --- Helpers ---

func formatClock(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func errStatus(err error) statusMsg {
	return statusMsg{text: err.Error(), isError: true}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
