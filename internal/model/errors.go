package model

import "errors"

var (
	// ErrRoomNotFound is returned when a room has neither members nor a
	// drawing log.
	ErrRoomNotFound = errors.New("room not found")

	// ErrSessionNotFound is returned when a session is not registered.
	ErrSessionNotFound = errors.New("session not found")

	// ErrOperationNotFound is returned when an operation id does not
	// resolve in a room's log or archive.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrMalformedOperation is returned when a drawing operation carries
	// neither a point sequence nor a shape descriptor.
	ErrMalformedOperation = errors.New("operation payload is malformed")
)
