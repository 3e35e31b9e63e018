package registry

import (
	"testing"

	"github.com/draw-together/backend/internal/model"
)

func TestConnectAssignsIdentity(t *testing.T) {
	r := NewRegistry()

	s := r.Connect("")
	if s.ID == "" {
		t.Fatal("expected a session id")
	}
	if s.Name == "" {
		t.Error("expected a generated display name")
	}
	if s.CurrentRoom != "" {
		t.Errorf("expected no room before join, got %s", s.CurrentRoom)
	}
	if s.Color != "" {
		t.Errorf("expected no color before first join, got %s", s.Color)
	}

	named := r.Connect("ada")
	if named.Name != "ada" {
		t.Errorf("expected suggested name kept, got %s", named.Name)
	}
	if r.SessionCount() != 2 {
		t.Errorf("expected 2 sessions, got %d", r.SessionCount())
	}
}

func TestJoinAssignsPaletteColorOnce(t *testing.T) {
	r := NewRegistry()
	s := r.Connect("")

	joined, previous, ok := r.Join(s.ID, "art")
	if !ok {
		t.Fatal("expected join to succeed")
	}
	if previous != "" {
		t.Errorf("expected no previous room on first join, got %s", previous)
	}
	if joined.CurrentRoom != "art" {
		t.Errorf("expected current room art, got %s", joined.CurrentRoom)
	}

	found := false
	for _, c := range model.Palette {
		if c == joined.Color {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("color %s not from the palette", joined.Color)
	}

	// Switching rooms keeps the color for the session lifetime.
	switched, _, _ := r.Join(s.ID, "other")
	if switched.Color != joined.Color {
		t.Errorf("color changed on room switch: %s -> %s", joined.Color, switched.Color)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	s := r.Connect("")
	first, _, _ := r.Join(s.ID, "art")

	again, previous, ok := r.Join(s.ID, "art")
	if !ok {
		t.Fatal("expected re-join to succeed")
	}
	if previous != "art" {
		t.Errorf("expected previous to equal the room on re-join, got %q", previous)
	}
	if again.Color != first.Color {
		t.Errorf("re-join reassigned color: %s -> %s", first.Color, again.Color)
	}
	if r.MemberCount("art") != 1 {
		t.Errorf("re-join duplicated membership: %d members", r.MemberCount("art"))
	}
}

func TestJoinSwitchesRooms(t *testing.T) {
	r := NewRegistry()
	s := r.Connect("")
	r.Join(s.ID, "art")

	_, previous, ok := r.Join(s.ID, "music")
	if !ok {
		t.Fatal("expected room switch to succeed")
	}
	if previous != "art" {
		t.Errorf("expected previous room art, got %s", previous)
	}
	if r.MemberCount("art") != 0 {
		t.Errorf("expected old room emptied, got %d members", r.MemberCount("art"))
	}
	if r.MemberCount("music") != 1 {
		t.Errorf("expected new room joined, got %d members", r.MemberCount("music"))
	}

	// The emptied room's membership record is gone.
	for _, id := range r.Rooms() {
		if id == "art" {
			t.Error("expected empty room record deleted")
		}
	}
}

func TestJoinUnknownSession(t *testing.T) {
	r := NewRegistry()
	if _, _, ok := r.Join("ghost", "art"); ok {
		t.Error("expected join of unknown session to fail")
	}
}

func TestLeave(t *testing.T) {
	r := NewRegistry()
	s := r.Connect("")
	r.Join(s.ID, "art")

	// Leaving a room the session is not in does nothing.
	if left := r.Leave(s.ID, "music"); len(left) != 0 {
		t.Errorf("expected no rooms left, got %v", left)
	}

	left := r.Leave(s.ID, "art")
	if len(left) != 1 || left[0] != "art" {
		t.Errorf("expected to leave art, got %v", left)
	}
	if room, _ := r.CurrentRoom(s.ID); room != "" {
		t.Errorf("expected no current room after leave, got %s", room)
	}

	// Empty room id leaves whatever room is occupied.
	r.Join(s.ID, "music")
	left = r.Leave(s.ID, "")
	if len(left) != 1 || left[0] != "music" {
		t.Errorf("expected to leave music, got %v", left)
	}
}

func TestRemoveSessionReportsOccupiedRooms(t *testing.T) {
	r := NewRegistry()
	s1 := r.Connect("")
	s2 := r.Connect("")
	r.Join(s1.ID, "art")
	r.Join(s2.ID, "art")

	affected := r.RemoveSession(s1.ID)
	if len(affected) != 1 || affected[0] != "art" {
		t.Errorf("expected art affected, got %v", affected)
	}
	if _, ok := r.Session(s1.ID); ok {
		t.Error("expected session removed")
	}
	if r.MemberCount("art") != 1 {
		t.Errorf("expected 1 remaining member, got %d", r.MemberCount("art"))
	}

	// Removing a session that never joined reports nothing.
	s3 := r.Connect("")
	if affected := r.RemoveSession(s3.ID); len(affected) != 0 {
		t.Errorf("expected no rooms affected, got %v", affected)
	}
}

func TestMembersOf(t *testing.T) {
	r := NewRegistry()
	s1 := r.Connect("ada")
	s2 := r.Connect("lin")
	r.Join(s1.ID, "art")
	r.Join(s2.ID, "art")

	members := r.MembersOf("art")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[s1.ID].Name != "ada" || members[s2.ID].Name != "lin" {
		t.Errorf("unexpected member identities: %+v", members)
	}
	if members[s1.ID].Color == "" {
		t.Error("expected member color present")
	}

	if len(r.MembersOf("nowhere")) != 0 {
		t.Error("expected no members for unknown room")
	}
}
