package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harsha08-2k6/studyplan/internal/api"
	"github.com/harsha08-2k6/studyplan/internal/planner"
	"github.com/harsha08-2k6/studyplan/internal/session"
	"github.com/harsha08-2k6/studyplan/internal/store"
)

func newTestApp(t *testing.T, handler http.Handler) (App, *session.Manager, *store.Store) {
	t.Helper()
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	client := api.New(srv.URL, 5*time.Second)
	sess := session.New(client, st)
	app := NewApp(sess, planner.NewStore(client), st)

	// Give the app a terminal.
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m.(App), sess, st
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func persistSession(t *testing.T, st *store.Store, u api.User) {
	t.Helper()
	raw, _ := json.Marshal(u)
	st.SetSession(store.KeyAccessToken, "acc-1")
	st.SetSession(store.KeyRefreshToken, "ref-1")
	st.SetSession(store.KeyUser, string(raw))
}

// ============================================================
// View gate
// ============================================================

func TestGateShowsPlaceholderBeforeRestore(t *testing.T) {
	a, _, _ := newTestApp(t, nil)

	view := a.View()
	if !strings.Contains(view, "Loading") {
		t.Error("expected loading placeholder before restore resolves")
	}
	for _, name := range protectedViewNames {
		if strings.Contains(view, name) {
			t.Errorf("protected tab %q rendered before restore", name)
		}
	}
}

func TestGatePlaceholderEvenWithUserSet(t *testing.T) {
	a, sess, st := newTestApp(t, nil)

	// A user is already published, but restore has not resolved from the
	// app's point of view. The placeholder must win.
	persistSession(t, st, api.User{ID: 1, Username: "alice"})
	sess.Restore()

	if !strings.Contains(a.View(), "Loading") {
		t.Error("gate admitted content while restore pending")
	}
}

func TestGateAnonymousLandsOnLogin(t *testing.T) {
	a, sess, _ := newTestApp(t, nil)
	sess.Restore()

	m, _ := a.Update(sessionRestoredMsg{})
	a = m.(App)

	if a.activeView != viewLogin {
		t.Fatalf("expected login view, got %v", a.activeView)
	}
	view := a.View()
	if !strings.Contains(view, "sign in") {
		t.Error("login view not rendered")
	}
	for _, name := range protectedViewNames {
		if strings.Contains(view, name) {
			t.Errorf("protected tab %q rendered while anonymous", name)
		}
	}
}

func TestGateRestoredSessionLandsOnDashboard(t *testing.T) {
	a, sess, st := newTestApp(t, nil)
	persistSession(t, st, api.User{ID: 1, Username: "alice", Role: api.RoleStudent})
	sess.Restore()

	m, cmd := a.Update(sessionRestoredMsg{})
	a = m.(App)

	if a.activeView != viewDashboard {
		t.Fatalf("expected dashboard, got %v", a.activeView)
	}
	if cmd == nil {
		t.Error("expected validation and refresh commands")
	}
	view := a.View()
	if !strings.Contains(view, "Dashboard") || !strings.Contains(view, "alice") {
		t.Error("header with tabs and user not rendered")
	}
}

func TestSessionExpiryReturnsToLogin(t *testing.T) {
	a, sess, st := newTestApp(t, nil)
	persistSession(t, st, api.User{ID: 1, Username: "alice"})
	sess.Restore()
	m, _ := a.Update(sessionRestoredMsg{})
	a = m.(App)

	sess.Logout()
	m, _ = a.Update(sessionExpiredMsg{})
	a = m.(App)

	if a.activeView != viewLogin {
		t.Fatalf("expected login view, got %v", a.activeView)
	}
	if !strings.Contains(a.View(), "Session expired") {
		t.Error("expiry notice not shown")
	}
}

func TestQuitWorksWhileAnonymous(t *testing.T) {
	a, sess, _ := newTestApp(t, nil)
	sess.Restore()
	m, _ := a.Update(sessionRestoredMsg{})
	a = m.(App)

	_, cmd := a.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestLoginMenuRestoredAfterLogout(t *testing.T) {
	a, sess, _ := newTestApp(t, nil)
	sess.Restore()
	m, _ := a.Update(sessionRestoredMsg{})
	a = m.(App)

	// A login round trip leaves the spinner flag behind unless the done
	// message resets it.
	a.login.submitting = true
	m, _ = a.Update(loginDoneMsg{user: &api.User{ID: 1, Username: "alice"}})
	a = m.(App)

	m, _ = a.Update(loggedOutMsg{})
	a = m.(App)

	if a.login.submitting {
		t.Fatal("submitting flag survived the login round trip")
	}
	view := a.View()
	if strings.Contains(view, "Signing in") {
		t.Error("login view stuck on the spinner after logout")
	}
	if !strings.Contains(view, "sign in") {
		t.Error("login menu hints not shown after logout")
	}
}

func TestRegisterMenuRestoredAfterDone(t *testing.T) {
	a, sess, _ := newTestApp(t, nil)
	sess.Restore()
	m, _ := a.Update(sessionRestoredMsg{})
	a = m.(App)

	a.register.submitting = true
	m, _ = a.Update(registerDoneMsg{username: "bob"})
	a = m.(App)

	if a.register.submitting {
		t.Fatal("submitting flag survived registration")
	}
	if a.activeView != viewLogin {
		t.Errorf("expected login view after registration, got %v", a.activeView)
	}
}

func TestStaleRefreshDiscarded(t *testing.T) {
	a, sess, st := newTestApp(t, nil)
	persistSession(t, st, api.User{ID: 1, Username: "alice"})
	sess.Restore()
	m, _ := a.Update(sessionRestoredMsg{})
	a = m.(App)

	// A snapshot from a superseded refresh. The planner store has since
	// started a new generation, so Apply refuses it and the dashboard
	// never sees it.
	stale := &planner.Snapshot{Tasks: []api.Task{{ID: 1}}}
	a.planner.StartRefresh()

	m, _ = a.Update(refreshMsg{snap: stale})
	a = m.(App)

	if a.dashboard.loaded {
		t.Error("stale snapshot reached the dashboard")
	}
	if len(a.planner.Tasks()) != 0 {
		t.Error("stale snapshot installed into collections")
	}
}

// ============================================================
// Task list
// ============================================================

func seededTasksModel(t *testing.T, handler http.Handler, tasks []api.Task) tasksModel {
	t.Helper()
	var client *api.Client
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		client = api.New(srv.URL, 5*time.Second)
	}
	pl := planner.NewStore(client)
	pl.Apply(&planner.Snapshot{Tasks: tasks, Subjects: []api.Subject{{ID: 1, Name: "Math"}}})
	tm := newTasksModel(pl)
	tm.setSize(100, 30)
	return tm
}

func TestFilterCycle(t *testing.T) {
	tm := seededTasksModel(t, nil, nil)

	want := []planner.Filter{planner.FilterPending, planner.FilterCompleted, planner.FilterAll}
	for _, expected := range want {
		tm, _ = tm.update(keyMsg("f"))
		if tm.filter != expected {
			t.Fatalf("expected filter %s, got %s", expected, tm.filter)
		}
	}
}

func TestSortToggle(t *testing.T) {
	tm := seededTasksModel(t, nil, nil)
	if tm.sortBy != planner.SortByDueDate {
		t.Fatalf("expected due_date default, got %s", tm.sortBy)
	}
	tm, _ = tm.update(keyMsg("s"))
	if tm.sortBy != planner.SortByPriority {
		t.Fatalf("expected priority after toggle, got %s", tm.sortBy)
	}
	tm, _ = tm.update(keyMsg("s"))
	if tm.sortBy != planner.SortByDueDate {
		t.Fatalf("expected due_date after second toggle, got %s", tm.sortBy)
	}
}

func TestFilterResetsCursor(t *testing.T) {
	tm := seededTasksModel(t, nil, []api.Task{{ID: 1}, {ID: 2}, {ID: 3}})
	tm, _ = tm.update(tea.KeyMsg{Type: tea.KeyDown})
	tm, _ = tm.update(tea.KeyMsg{Type: tea.KeyDown})
	if tm.cursor != 2 {
		t.Fatalf("expected cursor 2, got %d", tm.cursor)
	}
	tm, _ = tm.update(keyMsg("f"))
	if tm.cursor != 0 {
		t.Errorf("filter change did not reset cursor: %d", tm.cursor)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	hit := false
	tm := seededTasksModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}), []api.Task{{ID: 1, Title: "Essay"}})

	tm, _ = tm.update(keyMsg("d"))
	if !tm.confirmActive {
		t.Fatal("delete did not open confirmation")
	}
	if hit {
		t.Fatal("delete dispatched before confirmation")
	}

	// Escape cancels; nothing is deleted.
	tm, _ = tm.update(tea.KeyMsg{Type: tea.KeyEsc})
	if tm.confirmActive {
		t.Error("escape did not dismiss confirmation")
	}
	if hit {
		t.Error("cancelled delete still dispatched a request")
	}
	if len(tm.store.Tasks()) != 1 {
		t.Error("cancelled delete mutated the collection")
	}
}

func TestToggleCompleteFromList(t *testing.T) {
	tm := seededTasksModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/tasks/1/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.Task{ID: 1, Title: "Essay", Completed: true})
	}), []api.Task{{ID: 1, Title: "Essay"}})

	tm, cmd := tm.update(keyMsg("c"))
	if cmd == nil {
		t.Fatal("expected toggle command")
	}
	msg, ok := cmd().(taskUpdatedMsg)
	if !ok {
		t.Fatalf("expected taskUpdatedMsg, got %T", cmd())
	}
	if !msg.task.Completed {
		t.Error("server record not echoed back")
	}
	if !tm.store.Tasks()[0].Completed {
		t.Error("collection not reconciled")
	}
}

func TestToggleUnderFilterClampsCursor(t *testing.T) {
	// Completing the last pending row shrinks the pending view; the next
	// keypress must land on a valid row instead of indexing past the end.
	tm := seededTasksModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.Task{ID: 2, Title: "Lab report", Completed: true})
	}), []api.Task{
		{ID: 1, Title: "Reading"},
		{ID: 2, Title: "Lab report"},
	})

	tm, _ = tm.update(keyMsg("f")) // all -> pending
	if tm.filter != planner.FilterPending {
		t.Fatalf("expected pending filter, got %s", tm.filter)
	}
	tm, _ = tm.update(tea.KeyMsg{Type: tea.KeyDown})
	if tm.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", tm.cursor)
	}

	tm, cmd := tm.update(keyMsg("c"))
	if cmd == nil {
		t.Fatal("expected toggle command")
	}
	tm, _ = tm.update(cmd()) // taskUpdatedMsg reconciles the collection

	if got := len(tm.visible()); got != 1 {
		t.Fatalf("expected 1 pending task, got %d", got)
	}
	if tm.cursor >= len(tm.visible()) {
		t.Fatalf("cursor %d past end of %d-row view", tm.cursor, len(tm.visible()))
	}

	// The keypress that used to index out of range.
	tm, _ = tm.update(keyMsg("c"))
	tm, _ = tm.update(keyMsg("d"))
	if !tm.confirmActive {
		t.Error("delete on the surviving row did not open confirmation")
	}
}

func TestRefreshShrinkClampsCursor(t *testing.T) {
	tm := seededTasksModel(t, nil, []api.Task{{ID: 1}, {ID: 2}, {ID: 3}})
	tm, _ = tm.update(tea.KeyMsg{Type: tea.KeyDown})
	tm, _ = tm.update(tea.KeyMsg{Type: tea.KeyDown})

	// A refresh replaces the collection with a shorter one behind the
	// model's back.
	tm.store.Apply(&planner.Snapshot{Tasks: []api.Task{{ID: 1}}})

	tm, _ = tm.update(keyMsg("d"))
	if !tm.confirmActive {
		t.Error("delete after shrink did not open confirmation")
	}
	if tm.pendingDelete.ID != 1 {
		t.Errorf("expected surviving task pending delete, got id %d", tm.pendingDelete.ID)
	}
}

func TestNewTaskNeedsSubjects(t *testing.T) {
	pl := planner.NewStore(nil)
	tm := newTasksModel(pl)
	tm.setSize(100, 30)

	tm, cmd := tm.update(keyMsg("n"))
	if tm.formActive {
		t.Fatal("form opened without subjects")
	}
	if cmd == nil {
		t.Fatal("expected status command")
	}
	if msg, ok := cmd().(statusMsg); !ok || !msg.isError {
		t.Errorf("expected error status, got %v", cmd())
	}
}

func TestTaskListRendersRows(t *testing.T) {
	tm := seededTasksModel(t, nil, []api.Task{
		{ID: 1, Title: "Essay", Priority: "high", SubjectName: "History", DueDate: "2026-09-10"},
		{ID: 2, Title: "Homework", Priority: "low", Completed: true},
	})

	view := tm.view()
	for _, want := range []string{"Essay", "Homework", "HIGH", "due 2026-09-10", "[✓]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

// ============================================================
// Pomodoro
// ============================================================

func TestPomodoroToggleRecordsFocusSession(t *testing.T) {
	st, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	p := newPomodoroModel(st)
	if p.running {
		t.Fatal("timer should start stopped")
	}
	if p.remaining != focusDuration {
		t.Fatalf("expected full focus duration, got %v", p.remaining)
	}

	p, _ = p.toggle()
	if !p.running {
		t.Fatal("timer should run after toggle")
	}
	if p.sessionID == 0 {
		t.Fatal("focus run not recorded locally")
	}
	fs, err := st.GetFocusSession(p.sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if fs.Completed {
		t.Error("fresh run already completed")
	}

	// Pausing keeps the same local run.
	id := p.sessionID
	p, _ = p.toggle()
	if p.running {
		t.Fatal("timer should pause on second toggle")
	}
	p, _ = p.toggle()
	if p.sessionID != id {
		t.Error("resume started a new local run")
	}
}

func TestPomodoroPhaseAdvance(t *testing.T) {
	st, _ := store.NewMemory()
	t.Cleanup(func() { st.Close() })

	p := newPomodoroModel(st)
	p, _ = p.toggle()
	id := p.sessionID

	p, cmd := p.advancePhase()
	if p.phase != "break" {
		t.Fatalf("expected break phase, got %s", p.phase)
	}
	if p.remaining != breakDuration {
		t.Errorf("expected break duration, got %v", p.remaining)
	}
	if p.todayDone != 1 {
		t.Errorf("expected 1 completed run, got %d", p.todayDone)
	}
	if cmd == nil {
		t.Fatal("expected phase message")
	}
	if msg, ok := cmd().(focusPhaseMsg); !ok || msg.phase != "break" {
		t.Errorf("expected break phase message, got %v", cmd())
	}

	fs, err := st.GetFocusSession(id)
	if err != nil {
		t.Fatal(err)
	}
	if !fs.Completed {
		t.Error("finished focus run not marked completed")
	}

	// Break end flips back without touching the log.
	p, cmd = p.advancePhase()
	if p.phase != "focus" {
		t.Fatalf("expected focus phase, got %s", p.phase)
	}
	if p.todayDone != 1 {
		t.Errorf("break completion counted as focus run: %d", p.todayDone)
	}
	if msg, ok := cmd().(focusPhaseMsg); !ok || msg.phase != "focus" {
		t.Errorf("expected focus phase message, got %v", cmd())
	}
}

func TestPomodoroTickCountsDown(t *testing.T) {
	p := newPomodoroModel(nil)

	// Ticks are ignored while stopped.
	p, _ = p.update(tickMsg(time.Now()))
	if p.remaining != focusDuration {
		t.Fatal("stopped timer ticked down")
	}

	p.running = true
	p, _ = p.update(tickMsg(time.Now()))
	if p.remaining != focusDuration-time.Second {
		t.Fatalf("expected one second elapsed, got %v remaining", p.remaining)
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{25 * time.Minute, "25:00"},
		{90 * time.Second, "01:30"},
		{9 * time.Second, "00:09"},
		{0, "00:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.d); got != tt.want {
			t.Errorf("formatClock(%v): expected %s, got %s", tt.d, tt.want, got)
		}
	}
}
