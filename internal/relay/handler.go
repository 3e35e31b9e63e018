package relay

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Freehand paths carry
	// hundreds of sampled points, so this is roomier than a chat app
	// would need.
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking for production
		return true
	},
}

// Handler upgrades HTTP requests to WebSocket connections and runs the
// per-connection read and write pumps.
type Handler struct {
	relay *Relay
}

// NewHandler creates a WebSocket handler for the relay.
func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

// HandleConnection upgrades the request, assigns the connection a
// session identity, and starts its pumps. The optional name query
// parameter suggests a display name for the session.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sess := h.relay.registry.Connect(r.URL.Query().Get("name"))
	client := NewClient(h.relay, conn, sess.ID)
	h.relay.Register(client)

	log.Printf("relay: session %s connected as %q", sess.ID, sess.Name)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// readPump reads messages from the connection and dispatches them to
// the relay loop. It runs once per connection and tears the session
// down when the connection drops.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.relay.Unregister(client)
		client.Conn().Close()
	}()

	client.Conn().SetReadLimit(maxMessageSize)
	client.Conn().SetReadDeadline(time.Now().Add(pongWait))
	client.Conn().SetPongHandler(func(string) error {
		client.Conn().SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.Conn().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("relay: read error for session %s: %v", client.SessionID(), err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("relay: undecodable message from session %s dropped: %v", client.SessionID(), err)
			continue
		}

		h.relay.Dispatch(client, &msg)
	}
}

// writePump drains the client's send queue to the connection and keeps
// the connection alive with pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Relay closed the client
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
