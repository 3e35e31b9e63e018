// Package registry tracks connected sessions, their presentation
// identity, and which room each one currently occupies.
package registry

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draw-together/backend/internal/model"
)

// Registry owns session identity and room membership. A session
// occupies at most one room at a time; joining a new room implicitly
// leaves the previous one.
//
// Mutations arrive serialized through the relay loop; the mutex makes
// read-side accessors safe for HTTP handlers running alongside it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	rooms    map[string]map[string]*model.Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*model.Session),
		rooms:    make(map[string]map[string]*model.Session),
	}
}

// Connect registers a new session and returns a copy of it. The display
// name is the client's suggestion, or a generated fallback when empty.
func (r *Registry) Connect(name string) model.Session {
	id := uuid.New().String()
	if name == "" {
		name = model.DefaultName(id)
	}

	s := &model.Session{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	return *s
}

// Join moves the session into the room, creating the room's membership
// record if absent, and returns the updated session plus the room it
// previously occupied. previousRoom equals roomID on an idempotent
// re-join, which changes nothing: membership is not duplicated and the
// color is not reassigned. The color is picked pseudo-randomly from the
// palette on the session's first join only.
func (r *Registry) Join(sessionID, roomID string) (model.Session, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return model.Session{}, "", false
	}

	previous := s.CurrentRoom
	if previous == roomID {
		return *s, previous, true
	}

	if previous != "" {
		r.leaveLocked(s, previous)
	}

	if s.Color == "" {
		s.Color = model.Palette[rand.Intn(len(model.Palette))]
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*model.Session)
		r.rooms[roomID] = members
	}
	members[sessionID] = s
	s.CurrentRoom = roomID

	return *s, previous, true
}

// Leave removes the session from the given room, or from whichever room
// it occupies when roomID is empty. Returns the rooms actually left.
func (r *Registry) Leave(sessionID, roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok || s.CurrentRoom == "" {
		return nil
	}
	if roomID != "" && roomID != s.CurrentRoom {
		return nil
	}

	left := s.CurrentRoom
	r.leaveLocked(s, left)
	s.CurrentRoom = ""
	return []string{left}
}

// RemoveSession forgets the session entirely and returns the room(s) it
// occupied, so the caller can notify the peers left behind. Used on
// disconnect.
func (r *Registry) RemoveSession(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(r.sessions, sessionID)

	if s.CurrentRoom == "" {
		return nil
	}
	occupied := s.CurrentRoom
	r.leaveLocked(s, occupied)
	return []string{occupied}
}

// leaveLocked drops the membership entry and deletes the room record
// when it empties. The room's drawing log is owned elsewhere and
// survives until swept.
func (r *Registry) leaveLocked(s *model.Session, roomID string) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, s.ID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// MembersOf returns the presentation identity of every session in the
// room, keyed by session id. Used to build the join-time snapshot.
func (r *Registry) MembersOf(roomID string) map[string]model.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make(map[string]model.Member, len(r.rooms[roomID]))
	for id, s := range r.rooms[roomID] {
		members[id] = model.Member{Color: s.Color, Name: s.Name}
	}
	return members
}

// Session returns a copy of the session with the given id.
func (r *Registry) Session(sessionID string) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return model.Session{}, false
	}
	return *s, true
}

// CurrentRoom returns the room the session occupies, if any.
func (r *Registry) CurrentRoom(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	return s.CurrentRoom, true
}

// Rooms returns the ids of all rooms with at least one member.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

// MemberCount returns the number of sessions in the room.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// SessionCount returns the number of connected sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
