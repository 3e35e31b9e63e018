package relay

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents one WebSocket participant connection.
type Client struct {
	relay     *Relay
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	mu        sync.Mutex
	closed    bool
}

// NewClient creates a new client for an upgraded connection.
func NewClient(relay *Relay, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		relay:     relay,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

// Send queues a message for delivery to the client. A full buffer
// closes the client: a consumer that far behind is evicted rather than
// allowed to stall everyone else in the room.
func (c *Client) Send(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- message:
	default:
		c.closeLocked()
	}
}

// SendMessage marshals a message and queues it for delivery.
func (c *Client) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.Send(data)
	return nil
}

// Close marks the client closed and releases its send queue.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed reports whether the client has been closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SessionID returns the session identity bound to this connection.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}
