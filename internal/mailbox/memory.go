package mailbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory mailbox adapter for local runs and tests.
// All operations serialize on one mutex so callers may share it freely.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string]Summary
	sent     []Outgoing
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory mailbox.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]Summary),
	}
}

// Put upserts one message summary, seeding inbox state.
func (s *MemoryStore) Put(msg Summary) {
	key := strings.TrimSpace(msg.ID)
	if key == "" {
		return
	}
	if msg.Folder == "" {
		msg.Folder = "inbox"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[key] = msg
}

// Recent returns up to limit summaries, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 30
	}
	s.mu.RLock()
	out := make([]Summary, 0, len(s.messages))
	for _, msg := range s.messages {
		out = append(out, msg)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ByIDs returns summaries for known ids, preserving request order.
func (s *MemoryStore) ByIDs(_ context.Context, ids []string) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if msg, ok := s.messages[strings.TrimSpace(id)]; ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

// SetFlag updates one boolean flag on a stored message.
func (s *MemoryStore) SetFlag(_ context.Context, id string, flag Flag, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	switch flag {
	case FlagRead:
		msg.Read = value
	case FlagStarred:
		msg.Starred = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}
	s.messages[msg.ID] = msg
	return nil
}

// Move reassigns one message to a different folder.
func (s *MemoryStore) Move(_ context.Context, id string, folder string) error {
	target := strings.TrimSpace(folder)
	if target == "" {
		target = "inbox"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[strings.TrimSpace(id)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	msg.Folder = target
	s.messages[msg.ID] = msg
	return nil
}

// Send records one outgoing message in the sent log.
func (s *MemoryStore) Send(_ context.Context, msg Outgoing) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of the outgoing-message log.
func (s *MemoryStore) Sent() []Outgoing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Outgoing, len(s.sent))
	copy(out, s.sent)
	return out
}

// Len returns the number of stored message summaries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// SeedSample fills the store with a small deterministic inbox for local runs.
func SeedSample(s *MemoryStore, now time.Time) {
	samples := []Summary{
		{ID: "msg.1", From: "ops@example.com", Subject: "Deploy window tonight", Snippet: "The 22:00 window is confirmed", ReceivedAt: now.Add(-3 * time.Hour)},
		{ID: "msg.2", From: "billing@example.com", Subject: "Invoice 4021", Snippet: "Your invoice for March is attached", ReceivedAt: now.Add(-2 * time.Hour)},
		{ID: "msg.3", From: "alerts@example.com", Subject: "Disk usage warning", Snippet: "node-7 is at 91% capacity", ReceivedAt: now.Add(-30 * time.Minute)},
	}
	for _, msg := range samples {
		s.Put(msg)
	}
}
