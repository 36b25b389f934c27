package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/matheus3301/wppbot/internal/store"
)

// templateCache is the engine's in-memory copy of message_templates,
// keyed by lower-cased name. It implements dispatch.Templates.
type templateCache struct {
	mu    sync.RWMutex
	items map[string]string
	store Store
}

func newTemplateCache(st Store) *templateCache {
	return &templateCache{items: map[string]string{}, store: st}
}

func (c *templateCache) reload(ctx context.Context) error {
	templates, err := c.store.ListTemplates(ctx)
	if err != nil {
		return err
	}
	items := make(map[string]string, len(templates))
	for _, t := range templates {
		items[strings.ToLower(t.Name)] = t.Content
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *templateCache) Template(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.items[strings.ToLower(name)]
	return content, ok
}

func (c *templateCache) RecordUse(ctx context.Context, name string) error {
	_, err := c.store.IncrementTemplateUsage(ctx, name)
	return err
}

func (c *templateCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// settings mirrors the config table entries the pipelines consult on
// every message. It implements dispatch.Settings.
type settings struct {
	mu           sync.RWMutex
	autoReply    bool
	saveMessages bool
	welcome      string
}

func newSettings() *settings {
	return &settings{autoReply: true, saveMessages: true}
}

func (s *settings) AutoReply() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoReply
}

func (s *settings) SaveMessages() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveMessages
}

func (s *settings) WelcomeMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.welcome
}

// apply updates the cached value for key. Unknown keys are ignored.
func (s *settings) apply(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case store.ConfigAutoReply:
		s.autoReply = parseFlag(value, true)
	case store.ConfigSaveMessages:
		s.saveMessages = parseFlag(value, true)
	case store.ConfigWelcomeMessage:
		s.welcome = value
	}
}

func (s *settings) reload(ctx context.Context, st Store) error {
	for _, key := range []string{store.ConfigAutoReply, store.ConfigSaveMessages, store.ConfigWelcomeMessage} {
		v, ok, err := st.GetConfig(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			s.apply(key, v)
		}
	}
	return nil
}

// parseFlag accepts the usual boolean spellings and falls back to def.
func parseFlag(v string, def bool) bool {
	b, err := strconv.ParseBool(strings.Trim(strings.TrimSpace(v), `"`))
	if err != nil {
		return def
	}
	return b
}
