package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a session key has no stored value.
var ErrNotFound = errors.New("not found")

func (s *Store) GetSession(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSession(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO session (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) DeleteSession(key string) error {
	_, err := s.db.Exec(`DELETE FROM session WHERE key = ?`, key)
	return err
}

// ClearSession removes every persisted session value.
func (s *Store) ClearSession() error {
	_, err := s.db.Exec(`DELETE FROM session`)
	return err
}
