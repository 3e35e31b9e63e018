package relay

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/draw-together/backend/internal/archive"
	"github.com/draw-together/backend/internal/model"
	"github.com/draw-together/backend/internal/oplog"
	"github.com/draw-together/backend/internal/registry"
)

// inbound pairs a decoded message with the client that sent it.
type inbound struct {
	client *Client
	msg    *Message
}

// Relay routes client events into the session registry and room log
// and fans the resulting changes out to room peers. A single goroutine
// owns the loop, so each event is handled to completion before the
// next one starts and room state never interleaves mid-update.
type Relay struct {
	registry *registry.Registry
	log      *oplog.Store
	archiver *archive.Archiver

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}
	stopOnce   sync.Once
}

// NewRelay creates a relay over the given registry and room log. The
// archiver may be nil to disable archiving.
func NewRelay(reg *registry.Registry, store *oplog.Store, archiver *archive.Archiver) *Relay {
	return &Relay{
		registry:   reg,
		log:        store,
		archiver:   archiver,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		done:       make(chan struct{}),
	}
}

// Run processes relay events until Stop is called. All membership and
// log mutations happen on this goroutine.
func (r *Relay) Run() {
	for {
		select {
		case client := <-r.register:
			r.clients[client.SessionID()] = client

		case client := <-r.unregister:
			r.removeClient(client)

		case in := <-r.inbound:
			r.handleMessage(in.client, in.msg)

		case <-r.done:
			for _, client := range r.clients {
				client.Close()
			}
			r.clients = make(map[string]*Client)
			return
		}
	}
}

// Stop terminates the event loop and closes every connection.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

// Register hands a new client to the event loop.
func (r *Relay) Register(client *Client) {
	select {
	case r.register <- client:
	case <-r.done:
		client.Close()
	}
}

// Unregister removes a client from the event loop and announces its
// departure to any room it occupied.
func (r *Relay) Unregister(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.done:
	}
}

// Dispatch queues an inbound message for the event loop.
func (r *Relay) Dispatch(client *Client, msg *Message) {
	select {
	case r.inbound <- inbound{client: client, msg: msg}:
	case <-r.done:
	}
}

func (r *Relay) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessageTypeJoin:
		r.handleJoin(client, msg)
	case MessageTypeLeave:
		r.handleLeave(client, msg)
	case MessageTypeDraw:
		r.handleDraw(client, msg)
	case MessageTypeUndo:
		r.handleUndo(client, msg)
	case MessageTypeRedo:
		r.handleRedo(client, msg)
	case MessageTypeClear:
		r.handleClear(client)
	case MessageTypeCursor:
		r.handleCursor(client, msg)
	case MessageTypeLatency:
		r.handleLatency(client, msg)
	default:
		// Unknown message types are ignored.
	}
}

// handleJoin moves the session into the requested room. Rejoining the
// current room resends the initial state without announcing a new
// peer; switching rooms announces the departure to the old room first.
func (r *Relay) handleJoin(client *Client, msg *Message) {
	roomID := model.NormalizeRoomID(msg.Room)

	sess, previous, ok := r.registry.Join(client.SessionID(), roomID)
	if !ok {
		return
	}

	rejoin := previous == roomID
	if previous != "" && !rejoin {
		r.broadcast(previous, sess.ID, &Message{
			Type:      MessageTypePeerLeft,
			SessionID: sess.ID,
			Color:     sess.Color,
			Name:      sess.Name,
		})
	}

	r.log.EnsureRoom(roomID)

	if err := client.SendMessage(&Message{
		Type:       MessageTypeInitialState,
		Room:       roomID,
		Operations: r.log.VisibleSnapshot(roomID),
		Members:    r.registry.MembersOf(roomID),
	}); err != nil {
		log.Printf("relay: failed to send initial state to session %s: %v", sess.ID, err)
	}

	if !rejoin {
		r.broadcast(roomID, sess.ID, &Message{
			Type:      MessageTypePeerJoined,
			SessionID: sess.ID,
			Color:     sess.Color,
			Name:      sess.Name,
		})
	}
}

// handleLeave removes the session from the named room, or from its
// current room when no room is named. The room is not normalized here:
// an empty room means leave everywhere, not the default room.
func (r *Relay) handleLeave(client *Client, msg *Message) {
	sess, ok := r.registry.Session(client.SessionID())
	if !ok {
		return
	}

	for _, roomID := range r.registry.Leave(sess.ID, msg.Room) {
		r.broadcast(roomID, sess.ID, &Message{
			Type:      MessageTypePeerLeft,
			SessionID: sess.ID,
			Color:     sess.Color,
			Name:      sess.Name,
		})
	}
}

func (r *Relay) handleDraw(client *Client, msg *Message) {
	roomID, ok := r.registry.CurrentRoom(client.SessionID())
	if !ok || roomID == "" {
		log.Printf("relay: draw from session %s outside any room dropped", client.SessionID())
		return
	}
	if msg.Op == nil {
		log.Printf("relay: draw without operation from session %s dropped", client.SessionID())
		return
	}

	op := msg.Op
	op.Normalize(client.SessionID())
	if err := op.Validate(); err != nil {
		log.Printf("relay: malformed draw from session %s dropped: %v", client.SessionID(), err)
		return
	}

	if _, ok := r.log.Append(roomID, op); !ok {
		return
	}
	if r.archiver != nil {
		r.archiver.RecordAppend(roomID, op)
	}

	r.broadcast(roomID, client.SessionID(), &Message{
		Type: MessageTypeDraw,
		Op:   op,
	})
}

func (r *Relay) handleUndo(client *Client, msg *Message) {
	roomID, ok := r.registry.CurrentRoom(client.SessionID())
	if !ok || roomID == "" || msg.OperationID == "" {
		return
	}

	removed, ok := r.log.Tombstone(roomID, msg.OperationID)
	if !ok {
		return
	}
	if r.archiver != nil {
		r.archiver.RecordRemoved(removed.ID, true)
	}

	r.broadcast(roomID, client.SessionID(), &Message{
		Type:        MessageTypeOpRemoved,
		OperationID: removed.ID,
	})
}

func (r *Relay) handleRedo(client *Client, msg *Message) {
	roomID, ok := r.registry.CurrentRoom(client.SessionID())
	if !ok || roomID == "" || msg.OperationID == "" {
		return
	}

	restored, ok := r.log.Restore(roomID, msg.OperationID)
	if !ok {
		return
	}
	if r.archiver != nil {
		r.archiver.RecordRemoved(restored.ID, false)
	}

	r.broadcast(roomID, client.SessionID(), &Message{
		Type: MessageTypeOpRestored,
		Op:   restored,
	})
}

func (r *Relay) handleClear(client *Client) {
	roomID, ok := r.registry.CurrentRoom(client.SessionID())
	if !ok || roomID == "" {
		return
	}
	if !r.log.Clear(roomID) {
		return
	}

	r.broadcast(roomID, client.SessionID(), &Message{
		Type: MessageTypeCanvasCleared,
	})
}

// handleCursor relays an ephemeral cursor position. Positions are
// never logged, so nothing here touches the room log or archive.
func (r *Relay) handleCursor(client *Client, msg *Message) {
	if msg.X == nil || msg.Y == nil {
		return
	}
	roomID, ok := r.registry.CurrentRoom(client.SessionID())
	if !ok || roomID == "" {
		return
	}

	r.broadcast(roomID, client.SessionID(), &Message{
		Type:      MessageTypeCursor,
		X:         msg.X,
		Y:         msg.Y,
		SessionID: client.SessionID(),
	})
}

// handleLatency answers a probe directly to its sender, echoing the
// token untouched. Probes work outside rooms and are never broadcast.
func (r *Relay) handleLatency(client *Client, msg *Message) {
	if err := client.SendMessage(&Message{
		Type:      MessageTypeLatencyAck,
		EchoToken: msg.EchoToken,
	}); err != nil {
		log.Printf("relay: failed to send latency ack to session %s: %v", client.SessionID(), err)
	}
}

// removeClient drops a disconnected client, forgets its session, and
// announces the departure to the room it occupied.
func (r *Relay) removeClient(client *Client) {
	current, ok := r.clients[client.SessionID()]
	if !ok || current != client {
		return
	}
	delete(r.clients, client.SessionID())

	sess, hasSession := r.registry.Session(client.SessionID())
	affected := r.registry.RemoveSession(client.SessionID())
	client.Close()

	if !hasSession {
		return
	}
	for _, roomID := range affected {
		r.broadcast(roomID, sess.ID, &Message{
			Type:      MessageTypePeerLeft,
			SessionID: sess.ID,
			Color:     sess.Color,
			Name:      sess.Name,
		})
	}
}

// broadcast fans a message out to every member of the room except the
// acting session. Messages never cross room boundaries and are never
// echoed to their originator.
func (r *Relay) broadcast(roomID, actorID string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay: failed to marshal %s message: %v", msg.Type, err)
		return
	}

	for sessionID := range r.registry.MembersOf(roomID) {
		if sessionID == actorID {
			continue
		}
		if client, ok := r.clients[sessionID]; ok {
			client.Send(data)
		}
	}
}
