package api

import (
	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/store"
)

// StatusResponse is the result of GetStatus.
type StatusResponse struct {
	Session     string          `json:"session"`
	State       string          `json:"state"`
	Connected   bool            `json:"connected"`
	PairingCode string          `json:"pairing_code,omitempty"`
	OwnAddress  string          `json:"own_address,omitempty"`
	Stats       engine.Snapshot `json:"stats"`
}

// SendRequest asks the bot to send a text message.
type SendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendResponse identifies a sent message.
type SendResponse struct {
	ID        string `json:"id"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
}

// ContactsResponse lists stored contacts.
type ContactsResponse struct {
	Contacts []store.Contact `json:"contacts"`
}

// UpdateContactRequest carries operator edits; nil fields are unchanged.
type UpdateContactRequest struct {
	Number   string  `json:"number"`
	Blocked  *bool   `json:"blocked,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// UpdateContactResponse reports whether the contact existed.
type UpdateContactResponse struct {
	Updated bool `json:"updated"`
}

// GroupsResponse lists stored groups.
type GroupsResponse struct {
	Groups []store.Group `json:"groups"`
}

// ListMessagesRequest filters the message log.
type ListMessagesRequest struct {
	ChatID    string `json:"chat_id,omitempty"`
	Direction string `json:"direction,omitempty"`
	Before    int64  `json:"before,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// MessagesResponse lists logged messages, newest first.
type MessagesResponse struct {
	Messages []store.Message `json:"messages"`
}

// SearchRequest is a substring search over message bodies.
type SearchRequest struct {
	Query  string `json:"query"`
	ChatID string `json:"chat_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// SearchResponse lists matches with snippets.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

// TemplatesResponse lists stored templates.
type TemplatesResponse struct {
	Templates []store.Template `json:"templates"`
}

// TemplateRequest creates, updates or names a template.
type TemplateRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content,omitempty"`
	Category string `json:"category,omitempty"`
}

// DeleteTemplateResponse reports whether a template was removed.
type DeleteTemplateResponse struct {
	Deleted bool `json:"deleted"`
}

// ConfigResponse lists config entries.
type ConfigResponse struct {
	Entries []store.ConfigEntry `json:"entries"`
}

// ConfigRequest sets one config entry.
type ConfigRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WatchRequest selects events by kind prefix; empty means all.
type WatchRequest struct {
	Prefix string `json:"prefix,omitempty"`
}
