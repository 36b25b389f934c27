package store

import (
	"context"
	"time"
)

const messageColumns = `id, msg_id, from_number, COALESCE(to_number, '') AS to_number, body, direction,
	timestamp, COALESCE(chat_id, '') AS chat_id, COALESCE(contact_name, '') AS contact_name,
	is_group, COALESCE(media_type, '') AS media_type, status`

// SaveMessage appends m to the message log and sets m.ID.
func (db *DB) SaveMessage(ctx context.Context, m *Message) error {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	if m.Status == "" {
		m.Status = StatusDelivered
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO messages (msg_id, from_number, to_number, body, direction, timestamp, chat_id, contact_name, is_group, media_type, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MsgID, m.FromNumber, nullIfEmpty(m.ToNumber), m.Body, m.Direction, m.Timestamp,
		nullIfEmpty(m.ChatID), nullIfEmpty(m.ContactName), m.IsGroup, nullIfEmpty(m.MediaType), m.Status)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

// UpdateMessageStatus sets the status of outbound records carrying msgID.
// Returns the number of rows touched.
func (db *DB) UpdateMessageStatus(ctx context.Context, msgID, status string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE messages SET status = ?
		WHERE msg_id = ? AND msg_id != '' AND direction = 'sent'`,
		status, msgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MessageFilter narrows ListMessages. Zero values mean no restriction.
type MessageFilter struct {
	ChatID    string
	Direction string
	Before    int64
	Limit     int
}

// ListMessages returns messages newest first using keyset pagination by timestamp.
func (db *DB) ListMessages(ctx context.Context, f MessageFilter) ([]Message, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Before <= 0 {
		f.Before = time.Now().UnixMilli() + 1
	}
	q := `SELECT ` + messageColumns + ` FROM messages WHERE timestamp < ?`
	args := []any{f.Before}
	if f.ChatID != "" {
		q += ` AND chat_id = ?`
		args = append(args, f.ChatID)
	}
	if f.Direction != "" {
		q += ` AND direction = ?`
		args = append(args, f.Direction)
	}
	q += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, f.Limit)

	msgs := []Message{}
	if err := db.SelectContext(ctx, &msgs, q, args...); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MessageCount returns the number of logged messages in a direction, or
// all of them when direction is empty.
func (db *DB) MessageCount(ctx context.Context, direction string) (int64, error) {
	var count int64
	var err error
	if direction == "" {
		err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`)
	} else {
		err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE direction = ?`, direction)
	}
	return count, err
}
