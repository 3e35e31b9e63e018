package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRoomID is the room assigned when a join request carries an
// absent or invalid room id.
const DefaultRoomID = "default"

// MaxRoomIDLength is the longest accepted room id in bytes; longer ids
// are treated as invalid and fall back to DefaultRoomID.
const MaxRoomIDLength = 64

// Palette is the fixed set of colors assigned to participants on their
// first room join. Assignment is pseudo-random; collisions between
// participants are allowed.
var Palette = []string{
	"#e6194b", // red
	"#3cb44b", // green
	"#4363d8", // blue
	"#f58231", // orange
	"#911eb4", // purple
	"#42d4f4", // cyan
	"#f032e6", // magenta
	"#bfef45", // lime
	"#469990", // teal
	"#9a6324", // brown
}

// Session represents one connected participant.
type Session struct {
	ID          string    `json:"sessionId"`
	Color       string    `json:"color,omitempty"`
	Name        string    `json:"name"`
	JoinedAt    time.Time `json:"joinedAt"`
	CurrentRoom string    `json:"currentRoom,omitempty"`
}

// Member is the presentation identity of a session as seen by its room
// peers.
type Member struct {
	Color string `json:"color"`
	Name  string `json:"name"`
}

// DefaultName generates a display name from a session id for clients
// that do not suggest one.
func DefaultName(sessionID string) string {
	if len(sessionID) > 6 {
		sessionID = sessionID[:6]
	}
	return fmt.Sprintf("guest-%s", sessionID)
}

// NormalizeRoomID maps absent or invalid room ids to DefaultRoomID.
// Room ids are case-sensitive and at most MaxRoomIDLength bytes.
func NormalizeRoomID(roomID string) string {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" || len(roomID) > MaxRoomIDLength {
		return DefaultRoomID
	}
	return roomID
}
