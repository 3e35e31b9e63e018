package tasks

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/draw-together/backend/internal/oplog"
	"github.com/draw-together/backend/internal/registry"
)

// RoomSweeper periodically drops the drawing logs of rooms that have
// been empty and idle past the retention window.
type RoomSweeper struct {
	store     *oplog.Store
	registry  *registry.Registry
	schedule  string
	retention time.Duration
	cron      *cron.Cron
}

func NewRoomSweeper(store *oplog.Store, reg *registry.Registry, schedule string, retention time.Duration) *RoomSweeper {
	return &RoomSweeper{
		store:     store,
		registry:  reg,
		schedule:  schedule,
		retention: retention,
	}
}

// Start schedules the sweep. Occupied rooms are never swept no matter
// how old their last activity is.
func (s *RoomSweeper) Start() {
	c := cron.New()

	_, err := c.AddFunc(s.schedule, s.Sweep)
	if err != nil {
		log.Printf("[SWEEP] Error scheduling cron: %v", err)
		return
	}

	c.Start()
	s.cron = c
	log.Printf("[SWEEP] Sweeping idle rooms on schedule %q with retention %s", s.schedule, s.retention)
}

// Sweep drops every idle unoccupied room immediately.
func (s *RoomSweeper) Sweep() {
	cutoff := time.Now().Add(-s.retention)
	dropped := s.store.DropIdle(cutoff, func(roomID string) bool {
		return s.registry.MemberCount(roomID) > 0
	})
	if len(dropped) > 0 {
		log.Printf("[SWEEP] Dropped %d idle rooms: %v", len(dropped), dropped)
	}
}

// Stop halts the schedule. A sweep already running finishes on its own.
func (s *RoomSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
