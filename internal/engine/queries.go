package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheus3301/wppbot/internal/store"
	"go.uber.org/zap"
)

// Stats returns the traffic counters.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot(e.machine.Ready())
}

// State returns the session state and the pending pairing code, if any.
func (e *Engine) State() (string, string) {
	return string(e.machine.Current()), e.machine.PairingCode()
}

// OwnAddress returns the bot's own account number, or "" before pairing.
func (e *Engine) OwnAddress() string {
	return e.transport.OwnAddress()
}

// SyncDirectory runs a directory synchronisation now, sharing any run
// already in progress.
func (e *Engine) SyncDirectory(ctx context.Context) (SyncResult, error) {
	return e.sync.Run(ctx)
}

// ListDirectory returns stored contacts.
func (e *Engine) ListDirectory(ctx context.Context) ([]store.Contact, error) {
	return e.store.ListContacts(ctx)
}

// ListGroups returns stored groups.
func (e *Engine) ListGroups(ctx context.Context) ([]store.Group, error) {
	return e.store.ListGroups(ctx)
}

// ListMessages returns logged messages matching f.
func (e *Engine) ListMessages(ctx context.Context, f store.MessageFilter) ([]store.Message, error) {
	return e.store.ListMessages(ctx, f)
}

// SearchMessages finds logged messages containing query.
func (e *Engine) SearchMessages(ctx context.Context, query, chatID string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", ErrInvalidArgument)
	}
	return e.store.SearchMessages(ctx, query, chatID, limit)
}

// UpdateContact applies operator edits to a contact.
func (e *Engine) UpdateContact(ctx context.Context, number string, u store.ContactUpdate) (bool, error) {
	return e.store.UpdateContact(ctx, number, u)
}

// ListTemplates returns stored templates.
func (e *Engine) ListTemplates(ctx context.Context) ([]store.Template, error) {
	return e.store.ListTemplates(ctx)
}

// SaveTemplate stores t and refreshes the template cache.
func (e *Engine) SaveTemplate(ctx context.Context, t *store.Template) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || strings.ContainsAny(t.Name, " \t\n") {
		return fmt.Errorf("%w: template name %q must be a single word", ErrInvalidArgument, t.Name)
	}
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyContent
	}
	if err := e.store.SaveTemplate(ctx, t); err != nil {
		return err
	}
	return e.templates.reload(ctx)
}

// DeleteTemplate removes a template and refreshes the cache.
func (e *Engine) DeleteTemplate(ctx context.Context, name string) (bool, error) {
	ok, err := e.store.DeleteTemplate(ctx, name)
	if err != nil || !ok {
		return ok, err
	}
	return true, e.templates.reload(ctx)
}

// ListConfig returns every config entry.
func (e *Engine) ListConfig(ctx context.Context) ([]store.ConfigEntry, error) {
	return e.store.ListConfig(ctx)
}

// SetConfig writes a config entry and updates the live settings.
func (e *Engine) SetConfig(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: config key is empty", ErrInvalidArgument)
	}
	if err := e.store.SetConfig(ctx, key, value); err != nil {
		return err
	}
	e.settings.apply(key, value)
	e.logger.Info("config updated", zap.String("key", key))
	return nil
}
