package engine

import (
	"context"
	"time"
)

// MessageHandle identifies a message accepted by the transport.
type MessageHandle struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Contact is a directory entry as the transport reports it.
type Contact struct {
	Address   string
	Name      string
	AvatarURL string
}

// Chat is a conversation as the transport reports it.
type Chat struct {
	ID           string
	Name         string
	Description  string
	IsGroup      bool
	Participants int
}

// Transport is the messaging network as seen by the engine.
type Transport interface {
	Send(ctx context.Context, to, content string) (MessageHandle, error)
	ListContacts(ctx context.Context) ([]Contact, error)
	ListChats(ctx context.Context) ([]Chat, error)
	LookupContact(ctx context.Context, address string) (Contact, error)
	LookupChat(ctx context.Context, chatID string) (Chat, error)
	// OwnAddress returns the bot's own user part, or "" before pairing.
	OwnAddress() string
}
