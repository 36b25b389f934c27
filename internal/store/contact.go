package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UpsertContact inserts or refreshes a contact keyed by number. Only name,
// avatar and last-seen are overwritten; operator flags and notes are kept.
func (db *DB) UpsertContact(ctx context.Context, c *Contact) error {
	now := time.Now().UnixMilli()
	if c.LastSeen == 0 {
		c.LastSeen = now
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO contacts (number, name, profile_pic, last_seen, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			name = excluded.name,
			profile_pic = COALESCE(excluded.profile_pic, contacts.profile_pic),
			last_seen = excluded.last_seen`,
		c.Number, c.Name, nullIfEmpty(c.ProfilePic), c.LastSeen, now)
	return err
}

const contactColumns = `id, number, name, COALESCE(profile_pic, '') AS profile_pic,
	COALESCE(last_seen, 0) AS last_seen, is_blocked, is_favorite, notes, created_at`

// GetContact returns a contact by number, or nil when absent.
func (db *DB) GetContact(ctx context.Context, number string) (*Contact, error) {
	var c Contact
	err := db.GetContext(ctx, &c, `SELECT `+contactColumns+` FROM contacts WHERE number = ?`, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListContacts returns all contacts, favorites first, then by name.
func (db *DB) ListContacts(ctx context.Context) ([]Contact, error) {
	contacts := []Contact{}
	err := db.SelectContext(ctx, &contacts, `
		SELECT `+contactColumns+` FROM contacts
		ORDER BY is_favorite DESC, name COLLATE NOCASE, number`)
	return contacts, err
}

// ContactUpdate carries operator edits. Nil fields are left unchanged.
type ContactUpdate struct {
	Blocked  *bool
	Favorite *bool
	Notes    *string
}

// UpdateContact applies operator edits. Returns false when the contact is unknown.
func (db *DB) UpdateContact(ctx context.Context, number string, u ContactUpdate) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE contacts SET
			is_blocked = COALESCE(?, is_blocked),
			is_favorite = COALESCE(?, is_favorite),
			notes = COALESCE(?, notes)
		WHERE number = ?`,
		boolPtr(u.Blocked), boolPtr(u.Favorite), stringPtr(u.Notes), number)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ContactCount returns the number of contacts.
func (db *DB) ContactCount(ctx context.Context) (int64, error) {
	var count int64
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contacts`)
	return count, err
}

func boolPtr(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func stringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
