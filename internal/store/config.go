package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Well-known config keys.
const (
	ConfigAutoReply      = "auto_reply"
	ConfigSaveMessages   = "save_messages"
	ConfigAdminNumbers   = "admin_numbers"
	ConfigBotName        = "bot_name"
	ConfigWelcomeMessage = "welcome_message"
)

// SeedConfig inserts each default whose key is absent. Existing values
// are never overwritten.
func (db *DB) SeedConfig(ctx context.Context, defaults map[string]string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for k, v := range defaults {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO config (key, value, updated_at) VALUES (?, ?, ?)`,
			k, v, now); err != nil {
			return fmt.Errorf("seed %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// GetConfig returns the value for key and whether it exists.
func (db *DB) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := db.GetContext(ctx, &v, `SELECT value FROM config WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetConfig writes key, replacing any previous value.
func (db *DB) SetConfig(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	return err
}

// ListConfig returns every entry ordered by key.
func (db *DB) ListConfig(ctx context.Context) ([]ConfigEntry, error) {
	entries := []ConfigEntry{}
	err := db.SelectContext(ctx, &entries, `SELECT key, value, updated_at FROM config ORDER BY key`)
	return entries, err
}
