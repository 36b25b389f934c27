package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SaveTemplate creates a template or replaces the content and category of
// the one with the same name. Usage counts are preserved.
func (db *DB) SaveTemplate(ctx context.Context, t *Template) error {
	if t.Category == "" {
		t.Category = "general"
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO message_templates (name, content, category, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			content = excluded.content,
			category = excluded.category`,
		t.Name, t.Content, t.Category, time.Now().UnixMilli())
	return err
}

// GetTemplate looks a template up by name, ignoring case. Nil when absent.
func (db *DB) GetTemplate(ctx context.Context, name string) (*Template, error) {
	var t Template
	err := db.GetContext(ctx, &t, `
		SELECT id, name, content, category, usage_count, created_at
		FROM message_templates WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns all templates ordered by category then name.
func (db *DB) ListTemplates(ctx context.Context) ([]Template, error) {
	templates := []Template{}
	err := db.SelectContext(ctx, &templates, `
		SELECT id, name, content, category, usage_count, created_at
		FROM message_templates ORDER BY category, name`)
	return templates, err
}

// IncrementTemplateUsage bumps the usage counter by one. Returns false when
// no template has that name.
func (db *DB) IncrementTemplateUsage(ctx context.Context, name string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE message_templates SET usage_count = usage_count + 1 WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteTemplate removes a template. Returns false when it did not exist.
func (db *DB) DeleteTemplate(ctx context.Context, name string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM message_templates WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
