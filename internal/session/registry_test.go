package session

import (
	"errors"
	"testing"
	"time"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	}
}

// --- Helper ---

type fakeConn struct {
	sent      []map[string]any
	sendErr   error
	closed    bool
	closeCode int
}

func (c *fakeConn) SendEvent(payload map[string]any) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeConn) Close(code int) error {
	c.closed = true
	c.closeCode = code
	return nil
}

// --- ValidateStatus ---

func TestValidateStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   Status
		wantErr bool
	}{
		{"awaiting_input is valid", StatusAwaitingInput, false},
		{"running is valid", StatusRunning, false},
		{"completed is valid", StatusCompleted, false},
		{"disconnected_running is valid", StatusDisconnectedRunning, false},
		{"terminated is valid", StatusTerminated, false},
		{"empty is invalid", Status(""), true},
		{"unknown is invalid", Status("paused"), true},
		{"case sensitive", Status("Running"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStatus(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// --- Create ---

func TestCreate_AssignsIDAndDefaults(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")

	if sess.ID == "" {
		t.Fatal("Create should assign a session id")
	}
	if sess.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %s, want owner-1", sess.OwnerID)
	}
	if sess.Status != StatusAwaitingInput {
		t.Errorf("Status = %s, want awaiting_input", sess.Status)
	}
	if sess.Connected {
		t.Error("new session should not be connected")
	}
	if !sess.CreatedAt.Equal(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v, want frozen test time", sess.CreatedAt)
	}
}

func TestCreate_UniqueIDs(t *testing.T) {
	reg := NewRegistry()
	a := reg.Create("owner-1")
	b := reg.Create("owner-1")

	if a.ID == b.ID {
		t.Errorf("two sessions share id %s", a.ID)
	}
	if reg.Count() != 2 {
		t.Errorf("Count = %d, want 2", reg.Count())
	}
}

// --- Bind / Unbind ---

func TestBind_AttachesConnection(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")

	if err := reg.Bind(sess.ID, &fakeConn{}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	got, ok := reg.Get(sess.ID)
	if !ok {
		t.Fatal("session disappeared after Bind")
	}
	if !got.Connected {
		t.Error("session should be connected after Bind")
	}
	if got.Status != StatusAwaitingInput {
		t.Errorf("Status = %s, want awaiting_input (bind alone does not start work)", got.Status)
	}
}

func TestBind_UnknownSession(t *testing.T) {
	reg := NewRegistry()
	err := reg.Bind("nope", &fakeConn{})
	if err == nil {
		t.Fatal("Bind on unknown session should fail")
	}
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestBind_WhileDisconnectedRunning_RestoresRunning(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")
	_ = reg.Bind(sess.ID, &fakeConn{})
	_ = reg.SetStatus(sess.ID, StatusRunning)
	reg.Unbind(sess.ID)

	got, _ := reg.Get(sess.ID)
	if got.Status != StatusDisconnectedRunning {
		t.Fatalf("Status after unbind = %s, want disconnected_running", got.Status)
	}

	if err := reg.Bind(sess.ID, &fakeConn{}); err != nil {
		t.Fatalf("rebind failed: %v", err)
	}
	got, _ = reg.Get(sess.ID)
	if got.Status != StatusRunning {
		t.Errorf("Status after rebind = %s, want running", got.Status)
	}
	if !got.Connected {
		t.Error("session should be connected after rebind")
	}
}

func TestUnbind_WhileRunning_NeverRaises(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")
	_ = reg.Bind(sess.ID, &fakeConn{})
	_ = reg.SetStatus(sess.ID, StatusRunning)

	// Unbind has no error return: a disconnect never disturbs a
	// running task, it only drops deliverability.
	reg.Unbind(sess.ID)

	got, ok := reg.Get(sess.ID)
	if !ok {
		t.Fatal("session should survive unbind")
	}
	if got.Connected {
		t.Error("session should not be connected after Unbind")
	}
	if got.Status != StatusDisconnectedRunning {
		t.Errorf("Status = %s, want disconnected_running", got.Status)
	}
}

func TestUnbind_UnknownSession_NoOp(t *testing.T) {
	reg := NewRegistry()
	reg.Unbind("nope") // must not panic
}

func TestUnbind_AwaitingInput_KeepsStatus(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")
	_ = reg.Bind(sess.ID, &fakeConn{})
	reg.Unbind(sess.ID)

	got, _ := reg.Get(sess.ID)
	if got.Status != StatusAwaitingInput {
		t.Errorf("Status = %s, want awaiting_input (only running moves to disconnected_running)", got.Status)
	}
}

// --- Conn ---

func TestConn_ReturnsBoundHandle(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")
	want := &fakeConn{}
	_ = reg.Bind(sess.ID, want)

	got, ok := reg.Conn(sess.ID)
	if !ok {
		t.Fatal("Conn should report a bound handle")
	}
	if got != want {
		t.Error("Conn returned a different handle than was bound")
	}
}

func TestConn_NoHandle(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")

	if _, ok := reg.Conn(sess.ID); ok {
		t.Error("Conn should report false for an unbound session")
	}
	if _, ok := reg.Conn("nope"); ok {
		t.Error("Conn should report false for an unknown session")
	}
}

// --- SetStatus ---

func TestSetStatus_RejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")

	if err := reg.SetStatus(sess.ID, Status("bogus")); err == nil {
		t.Fatal("SetStatus with invalid status should fail")
	}
}

func TestSetStatus_UnknownSession(t *testing.T) {
	reg := NewRegistry()
	err := reg.SetStatus("nope", StatusRunning)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

// --- Remove ---

func TestRemove_DeletesSession(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")

	if !reg.Remove(sess.ID) {
		t.Fatal("Remove should report true for a live session")
	}
	if _, ok := reg.Get(sess.ID); ok {
		t.Error("Get should report false after Remove")
	}
	if reg.Count() != 0 {
		t.Errorf("Count = %d, want 0", reg.Count())
	}
}

func TestRemove_Idempotent(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Create("owner-1")
	_ = reg.Remove(sess.ID)

	if reg.Remove(sess.ID) {
		t.Error("second Remove should report false, not fail")
	}
}

// --- List ---

func TestList_ReturnsSnapshots(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Create("owner-1")
	_ = reg.Create("owner-2")

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(list))
	}

	// Mutating the snapshot must not touch registry state.
	list[0].Status = StatusTerminated
	for _, s := range reg.List() {
		if s.Status != StatusAwaitingInput {
			t.Errorf("registry status mutated through snapshot: %s", s.Status)
		}
	}
}
