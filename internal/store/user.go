package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/pavelanni/protu/internal/model"
)

// UpsertUser records the profile the backend returned at sign-in.
func (s *Store) UpsertUser(u model.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, username, avatar, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, email = excluded.email, username = excluded.username,
		   avatar = excluded.avatar, last_seen = excluded.last_seen`,
		u.ID, u.Name, u.Email, u.Username, u.Avatar, time.Now(),
	)
	if err != nil {
		slog.Error("failed to store user", "id", u.ID, "username", u.Username, "error", err)
		return err
	}
	return nil
}

// GetUser returns a user by backend id, or nil if unknown.
func (s *Store) GetUser(id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, name, email, username, avatar FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.Avatar)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ActiveUserCount returns the number of users with a live session.
func (s *Store) ActiveUserCount() (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(DISTINCT user_id) FROM auth_sessions WHERE expires_at >= ?`, time.Now(),
	).Scan(&count)
	return count, err
}
