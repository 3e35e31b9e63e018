// Package oplog maintains the authoritative per-room drawing operation
// log: an append-mostly, capacity-bounded sequence with tombstone-based
// undo and sequence-ordered visible snapshots for joining clients.
package oplog

import (
	"log"
	"sync"
	"time"

	"github.com/draw-together/backend/internal/model"
)

// DefaultCap is the per-room operation cap when none is configured.
const DefaultCap = 1000

// roomLog is the ordered operation history of one room.
type roomLog struct {
	ops        []*model.Operation
	nextSeq    int64
	lastActive time.Time
}

// Store owns the drawing logs of all rooms.
//
// All mutations arrive serialized through the relay loop; the mutex
// makes read-side snapshots safe for HTTP handlers running alongside
// it.
type Store struct {
	mu   sync.RWMutex
	cap  int
	logs map[string]*roomLog
}

// NewStore creates a Store with the given per-room operation cap.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{
		cap:  capacity,
		logs: make(map[string]*roomLog),
	}
}

// Cap returns the per-room operation cap.
func (s *Store) Cap() int {
	return s.cap
}

// EnsureRoom creates an empty log for the room if none exists yet.
// Logs are created at join time and outlive empty membership until the
// idle sweep drops them.
func (s *Store) EnsureRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logs[roomID]; !ok {
		s.logs[roomID] = &roomLog{lastActive: time.Now()}
	}
}

// Append assigns the next sequence number for the room (starting at 0,
// strictly increasing, never reused), stores the operation, and evicts
// the oldest entry once the cap is exceeded. Appending to a room
// without a log is a logged no-op.
func (s *Store) Append(roomID string, op *model.Operation) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[roomID]
	if !ok {
		log.Printf("oplog: append to unknown room %q dropped", roomID)
		return 0, false
	}

	op.Sequence = l.nextSeq
	l.nextSeq++
	l.ops = append(l.ops, op)
	l.lastActive = time.Now()

	// Eviction removes the oldest entry whether live or tombstoned and
	// is irreversible.
	if len(l.ops) > s.cap {
		copy(l.ops, l.ops[1:])
		l.ops[len(l.ops)-1] = nil
		l.ops = l.ops[:len(l.ops)-1]
	}

	return op.Sequence, true
}

// Tombstone marks the newest non-tombstoned operation with the given id
// as tombstoned and returns a copy of it so the caller can announce the
// removal. Missing or already tombstoned ids report false.
func (s *Store) Tombstone(roomID, operationID string) (*model.Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[roomID]
	if !ok {
		return nil, false
	}

	for i := len(l.ops) - 1; i >= 0; i-- {
		op := l.ops[i]
		if op.ID == operationID && !op.Tombstoned {
			op.Tombstoned = true
			l.lastActive = time.Now()
			cp := *op
			return &cp, true
		}
	}
	return nil, false
}

// Restore clears the tombstone of the operation with the given id,
// making it visible again at its original sequence position, and
// returns a copy of it. Missing or non-tombstoned ids report false; an
// evicted id is simply missing.
func (s *Store) Restore(roomID, operationID string) (*model.Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[roomID]
	if !ok {
		return nil, false
	}

	for i := len(l.ops) - 1; i >= 0; i-- {
		op := l.ops[i]
		if op.ID == operationID && op.Tombstoned {
			op.Tombstoned = false
			l.lastActive = time.Now()
			cp := *op
			return &cp, true
		}
	}
	return nil, false
}

// VisibleSnapshot returns copies of the room's non-tombstoned
// operations in sequence order. This is exactly what a newly joining or
// reconnecting session receives. Unknown rooms yield an empty snapshot.
func (s *Store) VisibleSnapshot(roomID string) []*model.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logs[roomID]
	if !ok {
		return nil
	}

	snapshot := make([]*model.Operation, 0, len(l.ops))
	for _, op := range l.ops {
		if op.Tombstoned {
			continue
		}
		cp := *op
		snapshot = append(snapshot, &cp)
	}
	return snapshot
}

// Clear replaces the room's log with an empty one. Clearing is not
// itself logged and cannot be undone. The sequence counter keeps
// counting so sequence numbers are never reused.
func (s *Store) Clear(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[roomID]
	if !ok {
		return false
	}

	l.ops = nil
	l.lastActive = time.Now()
	return true
}

// Drop removes a room's log entirely.
func (s *Store) Drop(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, roomID)
}

// DropIdle removes logs whose last activity is at or before cutoff,
// skipping rooms the occupied callback reports as having members.
// Returns the ids of the dropped rooms.
func (s *Store) DropIdle(cutoff time.Time, occupied func(roomID string) bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []string
	for id, l := range s.logs {
		if l.lastActive.After(cutoff) {
			continue
		}
		if occupied != nil && occupied(id) {
			continue
		}
		delete(s.logs, id)
		dropped = append(dropped, id)
	}
	return dropped
}

// RoomIDs returns the ids of all rooms currently holding a log.
func (s *Store) RoomIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.logs))
	for id := range s.logs {
		ids = append(ids, id)
	}
	return ids
}

// Info describes one room's log for inspection endpoints.
type Info struct {
	Operations int       `json:"operations"`
	Visible    int       `json:"visibleOperations"`
	NextSeq    int64     `json:"nextSequence"`
	LastActive time.Time `json:"lastActive"`
}

// Info returns log statistics for a room.
func (s *Store) Info(roomID string) (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logs[roomID]
	if !ok {
		return Info{}, false
	}

	visible := 0
	for _, op := range l.ops {
		if !op.Tombstoned {
			visible++
		}
	}
	return Info{
		Operations: len(l.ops),
		Visible:    visible,
		NextSeq:    l.nextSeq,
		LastActive: l.lastActive,
	}, true
}
