package store

import (
	"context"
	"strings"
	"unicode/utf8"
)

const snippetRadius = 32

// SearchMessages returns messages whose body contains query, case-insensitively.
func (db *DB) SearchMessages(ctx context.Context, query, chatID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + messageColumns + ` FROM messages WHERE body LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(query) + "%"}
	if chatID != "" {
		q += ` AND chat_id = ?`
		args = append(args, chatID)
	}
	q += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	var msgs []Message
	if err := db.SelectContext(ctx, &msgs, q, args...); err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(msgs))
	for _, m := range msgs {
		results = append(results, SearchResult{Message: m, Snippet: snippet(m.Body, query)})
	}
	return results, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippet marks the first match with << >> and trims the body around it.
func snippet(body, query string) string {
	idx := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if idx < 0 || query == "" {
		return body
	}
	end := idx + len(query)
	if end > len(body) {
		return body
	}
	start := max(0, idx-snippetRadius)
	stop := min(len(body), end+snippetRadius)
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for stop < len(body) && !utf8.RuneStart(body[stop]) {
		stop++
	}
	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(body[start:idx])
	b.WriteString("<<")
	b.WriteString(body[idx:end])
	b.WriteString(">>")
	b.WriteString(body[end:stop])
	if stop < len(body) {
		b.WriteString("...")
	}
	return b.String()
}
