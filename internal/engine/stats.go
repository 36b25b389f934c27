package engine

import (
	"sync"
	"time"
)

// Stats counts traffic since the process started.
type Stats struct {
	mu           sync.RWMutex
	received     int64
	sent         int64
	startedAt    time.Time
	lastActivity time.Time
	now          func() time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	MessagesReceived int64      `json:"messagesReceived"`
	MessagesSent     int64      `json:"messagesSent"`
	Connected        bool       `json:"connected"`
	UptimeMs         int64      `json:"uptimeMs"`
	StartedAt        time.Time  `json:"startedAt"`
	LastActivity     *time.Time `json:"lastActivity,omitempty"`
}

// NewStats starts the uptime clock.
func NewStats(now func() time.Time) *Stats {
	if now == nil {
		now = time.Now
	}
	return &Stats{startedAt: now(), now: now}
}

func (s *Stats) recordReceived() {
	s.mu.Lock()
	s.received++
	s.lastActivity = s.now()
	s.mu.Unlock()
}

func (s *Stats) recordSent() {
	s.mu.Lock()
	s.sent++
	s.lastActivity = s.now()
	s.mu.Unlock()
}

// Snapshot copies the counters. connected is supplied by the caller.
func (s *Stats) Snapshot(connected bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		MessagesReceived: s.received,
		MessagesSent:     s.sent,
		Connected:        connected,
		UptimeMs:         s.now().Sub(s.startedAt).Milliseconds(),
		StartedAt:        s.startedAt,
	}
	if !s.lastActivity.IsZero() {
		last := s.lastActivity
		snap.LastActivity = &last
	}
	return snap
}
