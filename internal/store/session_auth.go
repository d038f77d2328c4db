package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/pavelanni/protu/internal/model"
)

// DefaultSessionTTL applies when the backend token carries no expiry.
const DefaultSessionTTL = 24 * time.Hour

// CreateAuthSession stores the backend token of userID under a new random
// session id and returns the id. A zero expiresAt means DefaultSessionTTL.
func (s *Store) CreateAuthSession(userID, token string, expiresAt time.Time) (string, error) {
	id, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	if expiresAt.IsZero() {
		expiresAt = now.Add(DefaultSessionTTL)
	}
	_, err = s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, token, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, token, now, expiresAt,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetAuthSession returns the auth session for the given id, or nil if not found/expired.
func (s *Store) GetAuthSession(id string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT a.id, a.user_id, COALESCE(u.username, ''), a.token, a.created_at, a.expires_at
		 FROM auth_sessions a LEFT JOIN users u ON u.id = a.user_id
		 WHERE a.id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.Username, &sess.Token, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(id)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAuthSession removes a session.
func (s *Store) DeleteAuthSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, id)
	return err
}

// CleanupExpiredSessions removes all expired auth sessions and returns how many.
func (s *Store) CleanupExpiredSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
