package store

import (
	"database/sql"

	"github.com/pavelanni/protu/internal/model"
)

const (
	prefTheme = "theme"
	prefLang  = "lang"
)

// SetPreference upserts one preference of a user.
func (s *Store) SetPreference(userID, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = ?`,
		userID, key, value, value,
	)
	return err
}

// GetPreference returns one preference value.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetPreference(userID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SavePreferences stores the non-empty fields of p.
func (s *Store) SavePreferences(userID string, p model.Preferences) error {
	pairs := []struct{ k, v string }{
		{prefTheme, p.Theme},
		{prefLang, p.Lang},
	}
	for _, pair := range pairs {
		if pair.v == "" {
			continue
		}
		if err := s.SetPreference(userID, pair.k, pair.v); err != nil {
			return err
		}
	}
	return nil
}

// GetPreferences reads all preferences of a user. Missing keys stay empty.
func (s *Store) GetPreferences(userID string) (model.Preferences, error) {
	var p model.Preferences
	var err error
	if p.Theme, err = s.GetPreference(userID, prefTheme); err != nil {
		return p, err
	}
	if p.Lang, err = s.GetPreference(userID, prefLang); err != nil {
		return p, err
	}
	return p, nil
}
