package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serializes writes to a WebSocket connection so the event forwarder
// and the request loop can share it.
type Conn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewConn wraps an upgraded connection.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// WriteTyped sends a strongly-typed payload.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// WriteEvent sends data wrapped in an Envelope.
func (c *Conn) WriteEvent(event Event, data interface{}) error {
	return c.WriteTyped(Envelope{Event: event, Data: data})
}

// WriteError sends a typed ErrorResponse.
func (c *Conn) WriteError(code, message string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Code: code, Message: message})
}

// ReadJSON reads and decodes one message. It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.conn.SetReadDeadline(time.Now().Add(readWait))
	return c.conn.ReadJSON(v)
}

// CloseNormal sends a normal closure frame with reason.
func (c *Conn) CloseNormal(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	return c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
