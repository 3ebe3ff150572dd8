package store

import (
	"database/sql"
	"fmt"
	"time"
)

// FocusSession is one locally recorded pomodoro run. It never leaves this
// machine; the server knows nothing about focus time.
type FocusSession struct {
	ID            int64
	FocusDuration int
	BreakDuration int
	Completed     bool
	StartedAt     time.Time
	CompletedAt   *time.Time
}

func (s *Store) StartFocusSession(focusDuration, breakDuration int) (*FocusSession, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO focus_sessions (focus_duration, break_duration, started_at) VALUES (?, ?, ?)`,
		focusDuration, breakDuration, now,
	)
	if err != nil {
		return nil, fmt.Errorf("start focus session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetFocusSession(id)
}

func (s *Store) GetFocusSession(id int64) (*FocusSession, error) {
	f := &FocusSession{}
	var startedAt string
	var completedAt sql.NullString
	var completed int

	err := s.db.QueryRow(
		`SELECT id, focus_duration, break_duration, completed, started_at, completed_at
		 FROM focus_sessions WHERE id = ?`, id,
	).Scan(&f.ID, &f.FocusDuration, &f.BreakDuration, &completed, &startedAt, &completedAt)
	if err != nil {
		return nil, fmt.Errorf("get focus session %d: %w", id, err)
	}
	f.Completed = completed == 1
	f.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		f.CompletedAt = &t
	}
	return f, nil
}

func (s *Store) CompleteFocusSession(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE focus_sessions SET completed = 1, completed_at = ? WHERE id = ?`, now, id,
	)
	return err
}

// CountCompletedFocusSessions reports completed runs in [from, to).
func (s *Store) CountCompletedFocusSessions(from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM focus_sessions
		 WHERE completed = 1 AND started_at >= ? AND started_at < ?`,
		from.Format(time.RFC3339), to.Format(time.RFC3339),
	).Scan(&count)
	return count, err
}
