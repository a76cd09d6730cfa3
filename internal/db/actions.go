package db

import (
	"github.com/google/uuid"
	"github.com/tgienger/botdesk/internal/models"
)

// RecordAction appends an entry to the action history
func (db *DB) RecordAction(kind models.ActionKind, target string, ok bool, message string) (*models.Action, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO actions (id, kind, target, ok, message) VALUES (?, ?, ?, ?, ?)
	`, id, kind, target, ok, message)
	if err != nil {
		return nil, err
	}
	return db.GetAction(id)
}

// GetAction retrieves a history entry by ID
func (db *DB) GetAction(id string) (*models.Action, error) {
	a := &models.Action{}
	err := db.QueryRow(`
		SELECT id, kind, target, ok, message, created_at
		FROM actions WHERE id = ?
	`, id).Scan(&a.ID, &a.Kind, &a.Target, &a.OK, &a.Message, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActions returns the most recent history entries, newest first
func (db *DB) ListActions(limit int) ([]models.Action, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, kind, target, ok, message, created_at
		FROM actions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.Kind, &a.Target, &a.OK, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
