package model

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// OpKind identifies the drawing primitive an operation carries.
type OpKind string

const (
	// OpKindFreehand is a sampled freehand path.
	OpKindFreehand OpKind = "freehand-path"

	// OpKindShape is a parametric shape between two anchor points.
	OpKindShape OpKind = "shape"
)

// Point is one freehand sample. Tool attributes travel per point so a
// path can change color or width mid-stroke.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Tool  string  `json:"tool,omitempty"`
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Shape describes a parametric shape by its two anchor coordinates.
type Shape struct {
	Tool   string  `json:"tool"`
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// Operation is one drawing action contributed by a session.
//
// Sequence is assigned by the room log on append and never changes
// afterward. Undo tombstones an operation instead of deleting it, so
// redo can restore it at its original position; the flag is server-side
// state and never serialized to clients.
type Operation struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Kind      OpKind    `json:"kind"`
	Points    []Point   `json:"points,omitempty"`
	Shape     *Shape    `json:"shape,omitempty"`
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"createdAt"`

	Tombstoned bool `json:"-"`
}

// NewOperationID returns a time-based id with a random suffix. Ids must
// be unique across clients; a millisecond timestamp plus four random
// bytes keeps collisions out of practical reach.
func NewOperationID() string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(buf)
}

// Normalize fills the server-owned fields of a client-submitted
// operation: the id when absent, the author, the creation time, and the
// kind inferred from the payload when the client left it out.
func (o *Operation) Normalize(authorID string) {
	if o.ID == "" {
		o.ID = NewOperationID()
	}
	o.AuthorID = authorID
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if o.Kind == "" {
		if len(o.Points) > 0 {
			o.Kind = OpKindFreehand
		} else if o.Shape != nil {
			o.Kind = OpKindShape
		}
	}
}

// Validate checks that the operation carries a payload the room log can
// accept: a non-empty point sequence for freehand paths, or a shape
// descriptor for shapes.
func (o *Operation) Validate() error {
	switch o.Kind {
	case OpKindFreehand:
		if len(o.Points) == 0 {
			return ErrMalformedOperation
		}
	case OpKindShape:
		if o.Shape == nil {
			return ErrMalformedOperation
		}
	default:
		return ErrMalformedOperation
	}
	return nil
}

// operationPayload is the archived portion of an operation.
type operationPayload struct {
	Points []Point `json:"points,omitempty"`
	Shape  *Shape  `json:"shape,omitempty"`
}

// PayloadToJSON serializes the drawing payload (points or shape) to a
// JSON string for archive storage.
func (o *Operation) PayloadToJSON() (string, error) {
	data, err := json.Marshal(operationPayload{Points: o.Points, Shape: o.Shape})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PayloadFromJSON parses an archived payload string back into the
// operation.
func (o *Operation) PayloadFromJSON(data string) error {
	if data == "" {
		return nil
	}
	var payload operationPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return err
	}
	o.Points = payload.Points
	o.Shape = payload.Shape
	return nil
}
