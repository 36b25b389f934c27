package store

import (
	"context"
	"time"
)

// UpsertGroup inserts or refreshes a group keyed by group_id. An empty
// description leaves the stored one in place.
func (db *DB) UpsertGroup(ctx context.Context, g *Group) error {
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO "groups" (group_id, name, description, participants_count, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(group_id) DO UPDATE SET
			name = excluded.name,
			description = CASE WHEN excluded.description != '' THEN excluded.description ELSE "groups".description END,
			participants_count = excluded.participants_count`,
		g.GroupID, g.Name, g.Description, g.ParticipantsCount, now)
	return err
}

// ListGroups returns active groups ordered by name.
func (db *DB) ListGroups(ctx context.Context) ([]Group, error) {
	groups := []Group{}
	err := db.SelectContext(ctx, &groups, `
		SELECT id, group_id, name, description, participants_count, is_active, created_at
		FROM "groups"
		WHERE is_active = 1
		ORDER BY name COLLATE NOCASE, group_id`)
	return groups, err
}

// GroupCount returns the number of groups.
func (db *DB) GroupCount(ctx context.Context) (int64, error) {
	var count int64
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM "groups"`)
	return count, err
}
