package db

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Setting keys
const (
	SettingPageSize = "page_size"
)

// DB wraps the local console database
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and initializes the schema
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// PageSize returns the saved page size preference, or fallback when unset
func (db *DB) PageSize(fallback int) int {
	raw, err := db.GetSetting(SettingPageSize)
	if err != nil || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// SetPageSize saves the page size preference
func (db *DB) SetPageSize(n int) error {
	return db.SetSetting(SettingPageSize, strconv.Itoa(n))
}
