package hub

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/observability"
)

// Message roles in a session's conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one role-tagged conversation entry.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session owns one logical conversation: its ordered history and the set of
// subscribed clients. Subscribers are held as client ids and resolved through
// the registry at send time, so client teardown cannot dangle.
//
// State mutations (history appends, subscriber changes) serialize on mu and
// never block on the network. Broadcast fan-out serializes on sendMu instead,
// which yields FIFO delivery per session without stalling mutations.
type Session struct {
	ID string

	registry *Registry

	mu          sync.Mutex
	history     []Message
	subscribers map[string]struct{}

	sendMu sync.Mutex
}

func newSession(id string, registry *Registry) *Session {
	return &Session{
		ID:          id,
		registry:    registry,
		subscribers: make(map[string]struct{}),
	}
}

// Subscribe adds one client to the subscriber set and records the session on
// the client. Cross-session exclusivity is the router's responsibility.
func (s *Session) Subscribe(client *Client) {
	s.mu.Lock()
	s.subscribers[client.ID] = struct{}{}
	s.mu.Unlock()
	client.setSessionID(s.ID)
}

// Unsubscribe removes one client from the subscriber set. Clearing the
// client's session field stays with the caller.
func (s *Session) Unsubscribe(client *Client) {
	s.mu.Lock()
	delete(s.subscribers, client.ID)
	s.mu.Unlock()
}

// HasSubscribers reports whether any client is currently subscribed.
func (s *Session) HasSubscribers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) > 0
}

// SubscriberCount returns the current subscriber set size.
func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// SubscriberIDs returns a sorted snapshot of subscribed client ids.
func (s *Session) SubscriberIDs() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.subscribers))
	for id := range s.subscribers {
		out = append(out, id)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// AppendUserMessage appends one user entry to the conversation history.
func (s *Session) AppendUserMessage(text string) {
	s.append(RoleUser, text)
}

// AppendAssistantMessage appends one assistant entry to the history.
func (s *Session) AppendAssistantMessage(text string) {
	s.append(RoleAssistant, text)
}

// AppendSystemMessage appends one system entry to the history.
func (s *Session) AppendSystemMessage(text string) {
	s.append(RoleSystem, text)
}

func (s *Session) append(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Message{Role: role, Content: text, At: time.Now()})
}

// History returns a copy of the ordered conversation history.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// EndConversation truncates history for a fresh logical conversation while
// keeping the session id and subscriber set.
func (s *Session) EndConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Broadcast sends one frame to every current subscriber. A failed send is
// logged and skipped; remaining subscribers still receive the frame.
// Subscribers no longer present in the registry are skipped silently.
func (s *Session) Broadcast(frame any) {
	ids := s.SubscriberIDs()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	for _, id := range ids {
		client, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		if err := client.Send(frame); err != nil {
			observability.RecordBroadcastFailure()
			log.Warn().
				Str("session_id", s.ID).
				Str("client_id", id).
				Err(err).
				Msg("hub.session broadcast send failed")
			continue
		}
		observability.RecordFrame("out", FrameType(frame))
	}
}

// Cleanup releases session-held resources; called only by the table on
// destruction.
func (s *Session) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.subscribers = make(map[string]struct{})
}
