package relay

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/draw-together/backend/internal/oplog"
	"github.com/draw-together/backend/internal/registry"
)

// startRelay spins up a relay loop for one property iteration.
func startRelay() *Relay {
	r := NewRelay(registry.NewRegistry(), oplog.NewStore(0), nil)
	go r.Run()
	return r
}

// addPeer registers a client and joins it to a room, consuming the
// initial-state reply.
func addPeer(r *Relay, room string) (*Client, bool) {
	sess := r.registry.Connect("")
	client := NewClient(r, nil, sess.ID)
	r.Register(client)
	r.Dispatch(client, &Message{Type: MessageTypeJoin, Room: room})
	msg, ok := recv(client, time.Second)
	if !ok || msg.Type != MessageTypeInitialState {
		return nil, false
	}
	return client, true
}

// flushClient discards everything queued for the client up to a fresh
// latency ack, leaving its queue empty.
func flushClient(r *Relay, client *Client) bool {
	r.Dispatch(client, &Message{Type: MessageTypeLatency})
	for {
		msg, ok := recv(client, time.Second)
		if !ok {
			return false
		}
		if msg.Type == MessageTypeLatencyAck {
			return true
		}
	}
}

func TestBroadcastIsolationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a draw reaches exactly the sender's roommates", prop.ForAll(
		func(numPeers int, mask int) bool {
			r := startRelay()
			defer r.Stop()

			actor, ok := addPeer(r, "alpha")
			if !ok {
				return false
			}

			peers := make([]*Client, numPeers)
			inAlpha := make([]bool, numPeers)
			for i := range peers {
				room := "beta"
				if mask&(1<<i) != 0 {
					room = "alpha"
					inAlpha[i] = true
				}
				peer, ok := addPeer(r, room)
				if !ok {
					return false
				}
				peers[i] = peer
			}

			// Drop the join chatter so only the draw remains observable.
			if !flushClient(r, actor) {
				return false
			}
			for _, peer := range peers {
				if !flushClient(r, peer) {
					return false
				}
			}

			r.Dispatch(actor, drawPayload())

			for i, peer := range peers {
				if inAlpha[i] {
					msg, ok := recv(peer, time.Second)
					if !ok || msg.Type != MessageTypeDraw {
						return false
					}
					if msg.Op == nil || msg.Op.AuthorID != actor.SessionID() {
						return false
					}
				} else if !flushClient(r, peer) {
					return false
				}
			}

			// The sender itself hears nothing back.
			r.Dispatch(actor, &Message{Type: MessageTypeLatency})
			msg, ok := recv(actor, time.Second)
			return ok && msg.Type == MessageTypeLatencyAck
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 255),
	))

	properties.TestingRun(t)
}

func TestSequenceObservationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("peers observe sequences counting up from zero", prop.ForAll(
		func(numDraws int) bool {
			r := startRelay()
			defer r.Stop()

			actor, ok := addPeer(r, "alpha")
			if !ok {
				return false
			}
			observer, ok := addPeer(r, "alpha")
			if !ok {
				return false
			}
			if !flushClient(r, actor) {
				return false
			}

			for i := 0; i < numDraws; i++ {
				r.Dispatch(actor, drawPayload())
			}

			for i := 0; i < numDraws; i++ {
				msg, ok := recv(observer, time.Second)
				if !ok || msg.Type != MessageTypeDraw {
					return false
				}
				if msg.Op == nil || msg.Op.Sequence != int64(i) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}

func TestRejoinStateReflectsUndoProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("rejoin shows the canvas minus undone operations", prop.ForAll(
		func(numOps int, pick int) bool {
			r := startRelay()
			defer r.Stop()

			actor, ok := addPeer(r, "alpha")
			if !ok {
				return false
			}
			observer, ok := addPeer(r, "alpha")
			if !ok {
				return false
			}
			if !flushClient(r, actor) {
				return false
			}

			ids := make([]string, 0, numOps)
			for i := 0; i < numOps; i++ {
				r.Dispatch(actor, drawPayload())
				msg, ok := recv(observer, time.Second)
				if !ok || msg.Type != MessageTypeDraw || msg.Op == nil {
					return false
				}
				ids = append(ids, msg.Op.ID)
			}

			undone := ids[pick%numOps]
			r.Dispatch(actor, &Message{Type: MessageTypeUndo, OperationID: undone})
			if msg, ok := recv(observer, time.Second); !ok || msg.Type != MessageTypeOpRemoved {
				return false
			}

			r.Dispatch(actor, &Message{Type: MessageTypeJoin, Room: "alpha"})
			state, ok := recv(actor, time.Second)
			if !ok || state.Type != MessageTypeInitialState {
				return false
			}
			if len(state.Operations) != numOps-1 {
				return false
			}
			for _, op := range state.Operations {
				if op.ID == undone {
					return false
				}
			}

			r.Dispatch(actor, &Message{Type: MessageTypeRedo, OperationID: undone})
			if msg, ok := recv(observer, time.Second); !ok || msg.Type != MessageTypeOpRestored {
				return false
			}

			r.Dispatch(actor, &Message{Type: MessageTypeJoin, Room: "alpha"})
			state, ok = recv(actor, time.Second)
			return ok && state.Type == MessageTypeInitialState && len(state.Operations) == numOps
		},
		gen.IntRange(1, 15),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}
