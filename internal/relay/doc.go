// Package relay routes drawing events between clients sharing a room.
//
// The package implements:
//   - Client: one WebSocket participant with a buffered send queue
//   - Relay: the event loop owning all membership and log mutations
//   - Handler: connection upgrades and per-connection read/write pumps
//   - Message: the flat JSON envelope spoken on the wire
//
// A single goroutine runs the relay loop, so events are handled to
// completion in arrival order and room state never interleaves
// mid-update. Fan-out goes to room peers only: messages never cross
// room boundaries and are never echoed back to their originator.
package relay
