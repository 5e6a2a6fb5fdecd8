// Package session owns session records and connection binding.
//
// A session decouples its owner's connection from any long-running work:
// the connection handle may come and go while a workflow keeps running.
// The Registry is the single holder of session records; every other
// component reaches them through its narrow API, so there is no ambient
// cross-component mutation of session state.
//
// Single-writer rule: the connection field of a session is mutated only
// by delivery (unbind on send failure) and by the supervisor's teardown
// sequence. Both go through Bind/Unbind/Remove here.
package session

import (
	"fmt"
	"time"
)

// --- Status enum ---

// Status tracks where a session is in its lifecycle.
type Status string

const (
	// StatusAwaitingInput: session opened, no workflow submitted yet.
	StatusAwaitingInput Status = "awaiting_input"
	// StatusRunning: a workflow task is executing and the connection is bound.
	StatusRunning Status = "running"
	// StatusCompleted: workflow finished successfully; set just before removal.
	StatusCompleted Status = "completed"
	// StatusDisconnectedRunning: the workflow keeps running with no connection bound.
	StatusDisconnectedRunning Status = "disconnected_running"
	// StatusTerminated: workflow failed or was canceled; set just before removal.
	StatusTerminated Status = "terminated"
)

// validStatuses is the set of allowed session statuses.
var validStatuses = map[Status]bool{
	StatusAwaitingInput:       true,
	StatusRunning:             true,
	StatusCompleted:           true,
	StatusDisconnectedRunning: true,
	StatusTerminated:          true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid session status %q: must be one of: awaiting_input, running, completed, disconnected_running, terminated", s)
	}
	return nil
}

// --- Connection handle ---

// CloseNormal is the close code used when a workflow tears down cleanly.
// It matches the conventional "normal closure" code of socket transports.
const CloseNormal = 1000

// Conn is the opaque connection handle bound to a session. The core only
// pushes event payloads and closes with a code; framing, transport and
// reconnect behavior live entirely with the implementation.
type Conn interface {
	SendEvent(payload map[string]any) error
	Close(code int) error
}

// --- Session record ---

// Session is one owner-scoped session record. The zero connection state
// (nil handle) is legal at any status: a running workflow simply loses
// deliverability until a new handle is bound.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
	Connected bool      `json:"connected"`
}
