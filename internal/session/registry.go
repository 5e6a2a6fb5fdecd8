package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when an operation names an unknown session id.
	ErrSessionNotFound = errors.New("session: not found")
)

// record is the internal mutable form of a session. Public lookups return
// value copies so callers can never mutate registry state from outside.
type record struct {
	id        string
	ownerID   string
	createdAt time.Time
	status    Status
	conn      Conn
}

// Registry owns all live session records.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*record
}

// NewRegistry returns an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*record)}
}

// Create registers a new session for the given owner and returns its
// snapshot. The session starts in awaiting_input with no connection bound.
func (r *Registry) Create(ownerID string) Session {
	rec := &record{
		id:        uuid.NewString(),
		ownerID:   ownerID,
		createdAt: timeNow().UTC(),
		status:    StatusAwaitingInput,
	}

	r.mu.Lock()
	r.sessions[rec.id] = rec
	r.mu.Unlock()

	return rec.snapshot()
}

// Bind attaches a connection handle to a session. Binding while a workflow
// is running only restores deliverability; the task is never disturbed.
func (r *Registry) Bind(id string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	rec.conn = conn
	if rec.status == StatusDisconnectedRunning {
		rec.status = StatusRunning
	}
	return nil
}

// Unbind clears the connection handle. A running session moves to
// disconnected_running; the workflow itself is untouched. Unbinding an
// unknown or already-unbound session is a no-op.
func (r *Registry) Unbind(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return
	}
	rec.conn = nil
	if rec.status == StatusRunning {
		rec.status = StatusDisconnectedRunning
	}
}

// Get returns a snapshot of the session, or false if it does not exist.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return rec.snapshot(), true
}

// Conn returns the bound connection handle, or false when the session is
// unknown or has no handle. Read-only: send-failure unbinding goes through
// Unbind.
func (r *Registry) Conn(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[id]
	if !ok || rec.conn == nil {
		return nil, false
	}
	return rec.conn, true
}

// SetStatus transitions a session to the given status.
func (r *Registry) SetStatus(id string, status Status) error {
	if err := ValidateStatus(status); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	rec.status = status
	return nil
}

// Remove deletes the session record. Idempotent: removing an unknown id
// reports false and nothing else happens.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns snapshots of all live sessions, for the status surface.
func (r *Registry) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.sessions))
	for _, rec := range r.sessions {
		out = append(out, rec.snapshot())
	}
	return out
}

// snapshot converts the internal record to its public value form.
// Caller must hold at least a read lock.
func (rec *record) snapshot() Session {
	return Session{
		ID:        rec.id,
		OwnerID:   rec.ownerID,
		CreatedAt: rec.createdAt,
		Status:    rec.status,
		Connected: rec.conn != nil,
	}
}
