package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harsha08-2k6/studyplan/internal/store"
)

const (
	focusDuration = 25 * time.Minute
	breakDuration = 5 * time.Minute
)

// pomodoroModel is the focus/break interval timer. It is presentation-only
// with respect to the server; completed focus runs are recorded in the
// local database.
type pomodoroModel struct {
	local  *store.Store
	width  int
	height int

	phase     string // "focus" or "break"
	running   bool
	remaining time.Duration
	sessionID int64

	todayDone int
}

func newPomodoroModel(local *store.Store) pomodoroModel {
	return pomodoroModel{
		local:     local,
		phase:     "focus",
		remaining: focusDuration,
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !p.running {
			return p, nil
		}
		p.remaining -= time.Second
		if p.remaining > 0 {
			return p, nil
		}
		return p.advancePhase()

	case focusPhaseMsg:
		return p, func() tea.Msg {
			if msg.phase == "break" {
				return statusMsg{text: "Break time! Take a rest."}
			}
			return statusMsg{text: "Focus time! Let's work."}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			return p.toggle()
		case key.Matches(msg, keys.Reset):
			p.running = false
			p.sessionID = 0
			p.remaining = phaseDuration(p.phase)
			return p, nil
		}
	}
	return p, nil
}

func (p pomodoroModel) toggle() (pomodoroModel, tea.Cmd) {
	if p.running {
		p.running = false
		return p, nil
	}
	p.running = true
	// A fresh focus run gets a local log row; resume reuses it.
	if p.phase == "focus" && p.sessionID == 0 && p.local != nil {
		if fs, err := p.local.StartFocusSession(int(focusDuration.Seconds()), int(breakDuration.Seconds())); err == nil {
			p.sessionID = fs.ID
		}
	}
	return p, nil
}

func (p pomodoroModel) advancePhase() (pomodoroModel, tea.Cmd) {
	p.running = false
	if p.phase == "focus" {
		if p.sessionID != 0 && p.local != nil {
			p.local.CompleteFocusSession(p.sessionID)
			p.sessionID = 0
		}
		p.todayDone++
		p.phase = "break"
		p.remaining = breakDuration
		return p, func() tea.Msg { return focusPhaseMsg{phase: "break"} }
	}
	p.phase = "focus"
	p.remaining = focusDuration
	return p, func() tea.Msg { return focusPhaseMsg{phase: "focus"} }
}

func phaseDuration(phase string) time.Duration {
	if phase == "break" {
		return breakDuration
	}
	return focusDuration
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	if w < 20 {
		w = 20
	}

	label := errorStyle.Render("FOCUS SESSION")
	if p.phase == "break" {
		label = successStyle.Render("SHORT BREAK")
	}

	clock := clockStyle.Width(w - 6).Render(formatClock(p.remaining))
	if p.running {
		clock = clockRunningStyle.Width(w - 6).Render(formatClock(p.remaining))
	}

	state := mutedStyle.Render("■  STOPPED")
	if p.running {
		state = successStyle.Render("●  RUNNING")
	}

	counter := mutedStyle.Render(fmt.Sprintf("%d focus sessions completed today", p.todayDone))
	hint := mutedStyle.Render("space: start/pause  x: reset")

	content := lipgloss.JoinVertical(lipgloss.Center,
		label,
		"",
		clock,
		state,
		"",
		counter,
		hint,
	)

	style := panelStyle
	if p.running {
		style = activePanelStyle
	}
	return style.Width(w).Render(content)
}
