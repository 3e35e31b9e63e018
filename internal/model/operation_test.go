package model

import (
	"strings"
	"testing"
)

func TestNormalizeAssignsServerOwnedFields(t *testing.T) {
	op := &Operation{
		Points: []Point{{X: 1, Y: 2, Tool: "pen", Color: "#000000", Width: 2}},
	}

	op.Normalize("session-1")

	if op.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if op.AuthorID != "session-1" {
		t.Errorf("expected author session-1, got %s", op.AuthorID)
	}
	if op.CreatedAt.IsZero() {
		t.Error("expected creation time to be stamped")
	}
	if op.Kind != OpKindFreehand {
		t.Errorf("expected kind inferred as %s, got %s", OpKindFreehand, op.Kind)
	}
}

func TestNormalizeKeepsClientProvidedID(t *testing.T) {
	op := &Operation{
		ID:    "client-id-1",
		Shape: &Shape{Tool: "rect", StartX: 0, StartY: 0, EndX: 10, EndY: 10},
	}

	op.Normalize("session-2")

	if op.ID != "client-id-1" {
		t.Errorf("expected client id preserved, got %s", op.ID)
	}
	if op.Kind != OpKindShape {
		t.Errorf("expected kind inferred as %s, got %s", OpKindShape, op.Kind)
	}
}

func TestValidateRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		op      Operation
		wantErr bool
	}{
		{"freehand with points", Operation{Kind: OpKindFreehand, Points: []Point{{X: 1, Y: 1}}}, false},
		{"freehand without points", Operation{Kind: OpKindFreehand}, true},
		{"shape with descriptor", Operation{Kind: OpKindShape, Shape: &Shape{Tool: "line"}}, false},
		{"shape without descriptor", Operation{Kind: OpKindShape}, true},
		{"no kind and no payload", Operation{}, true},
		{"unknown kind", Operation{Kind: OpKind("scribble"), Points: []Point{{X: 1, Y: 1}}}, true},
	}

	for _, tc := range cases {
		err := tc.op.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestNewOperationIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewOperationID()
		if seen[id] {
			t.Fatalf("duplicate operation id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestNormalizeRoomID(t *testing.T) {
	if got := NormalizeRoomID("art"); got != "art" {
		t.Errorf("expected art, got %s", got)
	}
	if got := NormalizeRoomID("  "); got != DefaultRoomID {
		t.Errorf("expected default room for blank id, got %s", got)
	}
	if got := NormalizeRoomID(""); got != DefaultRoomID {
		t.Errorf("expected default room for empty id, got %s", got)
	}
	if got := NormalizeRoomID(strings.Repeat("x", MaxRoomIDLength+1)); got != DefaultRoomID {
		t.Errorf("expected default room for oversized id, got %s", got)
	}
	// Room ids are case-sensitive: distinct cases stay distinct.
	if NormalizeRoomID("Art") == NormalizeRoomID("art") {
		t.Error("expected case-sensitive room ids")
	}
}

func TestPayloadJSONRoundTrip(t *testing.T) {
	op := &Operation{
		ID:   "op-1",
		Kind: OpKindFreehand,
		Points: []Point{
			{X: 1.5, Y: 2.5, Tool: "pen", Color: "#e6194b", Width: 3},
			{X: 2, Y: 3},
		},
	}

	data, err := op.PayloadToJSON()
	if err != nil {
		t.Fatalf("failed to serialize payload: %v", err)
	}

	restored := &Operation{ID: "op-1", Kind: OpKindFreehand}
	if err := restored.PayloadFromJSON(data); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}

	if len(restored.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(restored.Points))
	}
	if restored.Points[0] != op.Points[0] || restored.Points[1] != op.Points[1] {
		t.Error("points not preserved through payload round trip")
	}
	if restored.Shape != nil {
		t.Error("unexpected shape on freehand payload")
	}
}
