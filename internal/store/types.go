package store

// Message directions.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// Message statuses. Received messages are stored as delivered; sent ones
// start as sent and advance on receipts.
const (
	StatusDelivered = "delivered"
	StatusSent      = "sent"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// Message is one row of the message log.
type Message struct {
	ID          int64  `db:"id" json:"id"`
	MsgID       string `db:"msg_id" json:"msg_id,omitempty"`
	FromNumber  string `db:"from_number" json:"from"`
	ToNumber    string `db:"to_number" json:"to,omitempty"`
	Body        string `db:"body" json:"body"`
	Direction   string `db:"direction" json:"direction"`
	Timestamp   int64  `db:"timestamp" json:"timestamp"`
	ChatID      string `db:"chat_id" json:"chat_id,omitempty"`
	ContactName string `db:"contact_name" json:"contact_name,omitempty"`
	IsGroup     bool   `db:"is_group" json:"is_group"`
	MediaType   string `db:"media_type" json:"media_type,omitempty"`
	Status      string `db:"status" json:"status"`
}

// Contact is a directory entry for a person. Blocked, favorite and notes
// are operator-owned and survive synchronisation.
type Contact struct {
	ID         int64  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	Name       string `db:"name" json:"name"`
	ProfilePic string `db:"profile_pic" json:"profile_pic,omitempty"`
	LastSeen   int64  `db:"last_seen" json:"last_seen"`
	IsBlocked  bool   `db:"is_blocked" json:"is_blocked"`
	IsFavorite bool   `db:"is_favorite" json:"is_favorite"`
	Notes      string `db:"notes" json:"notes,omitempty"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
}

// Group is a directory entry for a group chat.
type Group struct {
	ID                int64  `db:"id" json:"id"`
	GroupID           string `db:"group_id" json:"group_id"`
	Name              string `db:"name" json:"name"`
	Description       string `db:"description" json:"description,omitempty"`
	ParticipantsCount int    `db:"participants_count" json:"participants_count"`
	IsActive          bool   `db:"is_active" json:"is_active"`
	CreatedAt         int64  `db:"created_at" json:"created_at"`
}

// ConfigEntry is a key/value setting.
type ConfigEntry struct {
	Key       string `db:"key" json:"key"`
	Value     string `db:"value" json:"value"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// Template is a named canned reply.
type Template struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Content    string `db:"content" json:"content"`
	Category   string `db:"category" json:"category"`
	UsageCount int64  `db:"usage_count" json:"usage_count"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
}

// SearchResult holds a message with a snippet around the match.
type SearchResult struct {
	Message Message `json:"message"`
	Snippet string  `json:"snippet"`
}
