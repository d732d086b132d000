package hub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ActivityProbe reports work that must block session destruction.
type ActivityProbe interface {
	PendingActions(sessionID string) int
}

// Table creates sessions on demand, resolves them by id, and garbage-collects
// sessions that sit at zero subscribers for a full grace period.
//
// The table mutex covers both lookup-or-create and the cleanup timer firing,
// so a subscribe racing a scheduled destruction either lands on the live
// session or recreates it under the same id; it never observes a half-dead
// one.
type Table struct {
	registry *Registry
	grace    time.Duration
	probe    ActivityProbe

	mu       sync.Mutex
	sessions map[string]*Session
	timers   map[string]*time.Timer
}

// NewTable constructs an empty session table with the given cleanup grace.
func NewTable(registry *Registry, grace time.Duration) *Table {
	if grace <= 0 {
		grace = 60 * time.Second
	}
	return &Table{
		registry: registry,
		grace:    grace,
		sessions: make(map[string]*Session),
		timers:   make(map[string]*time.Timer),
	}
}

// SetActivityProbe wires the executor's pending-action check; nil disables it.
func (t *Table) SetActivityProbe(probe ActivityProbe) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probe = probe
}

// GetOrCreate resolves an existing session, creates one under the provided
// id, or generates a fresh id when none is given. Creation is idempotent per
// id: lookup and create happen under one lock.
func (t *Table) GetOrCreate(sessionID string) *Session {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		id = fmt.Sprintf("session.%d.%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if session, ok := t.sessions[id]; ok {
		return session
	}
	session := newSession(id, t.registry)
	t.sessions[id] = session
	log.Debug().Str("session_id", id).Msg("hub.table session created")
	return session
}

// Get resolves one session by id.
func (t *Table) Get(sessionID string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	session, ok := t.sessions[strings.TrimSpace(sessionID)]
	return session, ok
}

// ScheduleCleanup arms (or re-arms) the grace timer for one session.
// When the timer fires the session is destroyed only if it still exists,
// still has zero subscribers, and has no pending action execution.
// Re-entrant: repeat calls reset the pending timer, never double-free.
func (t *Table) ScheduleCleanup(sessionID string) {
	id := strings.TrimSpace(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[id]; !ok {
		return
	}
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
	}
	t.timers[id] = time.AfterFunc(t.grace, func() {
		t.reapSession(id)
	})
}

// reapSession re-checks destruction preconditions under the table lock.
func (t *Table) reapSession(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, id)

	session, ok := t.sessions[id]
	if !ok {
		return
	}
	if session.HasSubscribers() {
		return
	}
	if t.probe != nil && t.probe.PendingActions(id) > 0 {
		log.Debug().Str("session_id", id).Msg("hub.table cleanup deferred, action in flight")
		return
	}
	delete(t.sessions, id)
	session.Cleanup()
	log.Info().Str("session_id", id).Msg("hub.table session destroyed")
}

// IDs returns a sorted snapshot of live session ids.
func (t *Table) IDs() []string {
	t.mu.Lock()
	out := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		out = append(out, id)
	}
	t.mu.Unlock()
	sort.Strings(out)
	return out
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
