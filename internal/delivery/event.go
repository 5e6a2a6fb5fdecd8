// Package delivery carries workflow events to session clients.
//
// Every outbound message is one Event value; producers build them with the
// constructors here so the wire shape stays uniform across call sites. The
// Sender owns the failure policy: a send either lands or the connection is
// unbound, and no caller ever sees a delivery error.
package delivery

import (
	"fmt"
	"time"
)

// Kind discriminates the event union.
type Kind string

const (
	KindSessionCreated Kind = "session_created"
	KindTaskStarted    Kind = "task_started"
	KindProgress       Kind = "progress"
	KindStagnation     Kind = "stagnation"
	KindCompleted      Kind = "completed"
	KindError          Kind = "error"
)

var validKinds = map[Kind]bool{
	KindSessionCreated: true,
	KindTaskStarted:    true,
	KindProgress:       true,
	KindStagnation:     true,
	KindCompleted:      true,
	KindError:          true,
}

// ValidateKind checks if a kind is part of the event vocabulary.
func ValidateKind(k Kind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid event kind: %q", k)
	}
	return nil
}

// Event is the normalized message shape for everything a session client
// receives. Payload holds the kind-specific fields.
type Event struct {
	Kind      Kind           `json:"kind"`
	SessionID string         `json:"session_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Params flattens the event for transports that deliver loose key/value
// parameters instead of a typed struct.
func (e Event) Params() map[string]any {
	p := map[string]any{
		"kind":       string(e.Kind),
		"session_id": e.SessionID,
	}
	if e.Payload != nil {
		p["payload"] = e.Payload
	}
	return p
}

// --- Constructors ---

func NewSessionCreated(sessionID string) Event {
	return Event{Kind: KindSessionCreated, SessionID: sessionID}
}

func NewTaskStarted(sessionID string) Event {
	return Event{Kind: KindTaskStarted, SessionID: sessionID}
}

// NewProgress reports a completed or in-flight stage. data may be nil when
// the stage has nothing to show beyond its name.
func NewProgress(sessionID, stageName string, data map[string]any) Event {
	payload := map[string]any{"stage_name": stageName}
	if data != nil {
		payload["payload"] = data
	}
	return Event{Kind: KindProgress, SessionID: sessionID, Payload: payload}
}

// NewStagnation reports how long a task has been without progress.
func NewStagnation(sessionID string, stagnantFor time.Duration, message string) Event {
	return Event{Kind: KindStagnation, SessionID: sessionID, Payload: map[string]any{
		"seconds_stagnant": int(stagnantFor.Seconds()),
		"message":          message,
	}}
}

// NewCompleted is the terminal success event carrying the final result.
func NewCompleted(sessionID, result string) Event {
	return Event{Kind: KindCompleted, SessionID: sessionID, Payload: map[string]any{
		"result": result,
	}}
}

// NewError is the terminal failure event.
func NewError(sessionID, message string) Event {
	return Event{Kind: KindError, SessionID: sessionID, Payload: map[string]any{
		"message": message,
	}}
}
