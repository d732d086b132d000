package hub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is the transport-side handle for one connected client. The transport
// listener owns the socket; the hub only needs framed writes.
type Conn interface {
	WriteFrame(frame any) error
}

// Client is one connected client handle with its generated identity and its
// current session subscription, if any.
type Client struct {
	ID   string
	conn Conn

	mu        sync.Mutex
	sessionID string
}

// Send writes one outbound frame to the client's transport handle.
func (c *Client) Send(frame any) error {
	return c.conn.WriteFrame(frame)
}

// SessionID returns the client's current subscription, empty when none.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Registry tracks every currently connected client keyed by generated id.
// Pure bookkeeping: no operation here fails.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry constructs an empty client registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register stores one transport handle under a fresh client id.
// Collision probability is negligible: millisecond timestamp plus random suffix.
func (r *Registry) Register(conn Conn) *Client {
	client := &Client{
		ID:   fmt.Sprintf("client.%d.%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		conn: conn,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID] = client
	return client
}

// Unregister removes one client handle; unknown ids are a no-op.
func (r *Registry) Unregister(clientID string) {
	key := strings.TrimSpace(clientID)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, key)
}

// Get resolves one client handle by id.
func (r *Registry) Get(clientID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[strings.TrimSpace(clientID)]
	return client, ok
}

// All returns a snapshot of currently connected clients, stable by id.
// Mutation during iteration of the result cannot affect the registry.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	out := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		out = append(out, client)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
