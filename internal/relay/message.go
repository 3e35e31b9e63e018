package relay

import (
	"encoding/json"

	"github.com/draw-together/backend/internal/model"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	// Client -> Server message types. Draw and cursor messages fan back
	// out to room peers under the same type.
	MessageTypeJoin    MessageType = "join-room"
	MessageTypeLeave   MessageType = "leave-room"
	MessageTypeDraw    MessageType = "draw-op"
	MessageTypeUndo    MessageType = "undo-op"
	MessageTypeRedo    MessageType = "redo-op"
	MessageTypeClear   MessageType = "clear-canvas"
	MessageTypeCursor  MessageType = "cursor-move"
	MessageTypeLatency MessageType = "latency-probe"

	// Server -> Client message types
	MessageTypeInitialState  MessageType = "initial-state"
	MessageTypePeerJoined    MessageType = "peer-joined"
	MessageTypePeerLeft      MessageType = "peer-left"
	MessageTypeOpRemoved     MessageType = "op-removed"
	MessageTypeOpRestored    MessageType = "op-restored"
	MessageTypeCanvasCleared MessageType = "canvas-cleared"
	MessageTypeLatencyAck    MessageType = "latency-ack"
)

// Message is the flat wire envelope: a type discriminator plus the
// union of payload fields, unused ones omitted. Cursor coordinates are
// pointers so zero positions survive and absent ones are detectable.
// Empty operation/member collections are omitted; clients treat an
// absent field as empty.
type Message struct {
	Type        MessageType             `json:"type"`
	Room        string                  `json:"roomId,omitempty"`
	Op          *model.Operation        `json:"op,omitempty"`
	OperationID string                  `json:"operationId,omitempty"`
	X           *float64                `json:"x,omitempty"`
	Y           *float64                `json:"y,omitempty"`
	SessionID   string                  `json:"sessionId,omitempty"`
	Color       string                  `json:"color,omitempty"`
	Name        string                  `json:"name,omitempty"`
	EchoToken   json.RawMessage         `json:"echoToken,omitempty"`
	Operations  []*model.Operation      `json:"operations,omitempty"`
	Members     map[string]model.Member `json:"members,omitempty"`
}
