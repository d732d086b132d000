package web

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neuro-synapse/bridged/internal/hub"
)

const writeTimeout = 10 * time.Second

// wsConn adapts one gorilla websocket connection to the hub's Conn contract.
// gorilla permits at most one concurrent writer, so writes serialize on mu.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ hub.Conn = (*wsConn)(nil)

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

// WriteFrame marshals one outbound frame as a JSON text message.
func (c *wsConn) WriteFrame(frame any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(frame)
}

func (c *wsConn) close() {
	_ = c.conn.Close()
}
