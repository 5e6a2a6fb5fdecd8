// Package supervisor runs workflows to completion independently of the
// connections that submitted them. It owns the task table (at most one
// running workflow per session), the cooperative cancellation path, the
// stagnation watchdog, and the fixed teardown sequence that keeps the
// registry, the task table and the watchdog consistent.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/HendryAvila/steward/internal/delivery"
	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/workflow"
)

var (
	// ErrAlreadyRunning rejects a submission while a task is active.
	ErrAlreadyRunning = errors.New("supervisor: a task is already running for this session")
	// ErrNoActiveTask rejects a cancel with nothing to cancel.
	ErrNoActiveTask = errors.New("supervisor: no active task for this session")
)

// artifactPutTimeout bounds the fire-and-forget artifact push so a slow
// backend cannot stall teardown.
const artifactPutTimeout = 10 * time.Second

// ArtifactStore is the slice of the persistence collaborator the
// supervisor needs: one put at workflow finalization.
type ArtifactStore interface {
	Put(ctx context.Context, ownerID, key string, value []byte) error
}

// Config carries the watchdog timings.
type Config struct {
	// CheckInterval is the cadence of stagnation checks while armed.
	CheckInterval time.Duration
	// StagnationAfter is how long without activity counts as stagnant.
	StagnationAfter time.Duration
	// AlertBackoff is the slower check cadence after an alert, held
	// until activity re-arms the watchdog.
	AlertBackoff time.Duration
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval:   10 * time.Second,
		StagnationAfter: 300 * time.Second,
		AlertBackoff:    60 * time.Second,
	}
}

// Run describes one workflow submission.
type Run struct {
	SessionID string
	OwnerID   string
	Kind      string
	Pipeline  workflow.Stage
	State     *workflow.State
}

// TaskInfo is a point-in-time snapshot of one running task.
type TaskInfo struct {
	SessionID    string    `json:"session_id"`
	Kind         string    `json:"kind"`
	Stage        string    `json:"stage"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// task is one task-table entry. lastActivity and armed are read together
// by the watchdog in a single call, so both live under the table mutex.
type task struct {
	kind         string
	cancel       context.CancelFunc
	startedAt    time.Time
	lastActivity time.Time
	armed        bool
	cursor       string
}

type Supervisor struct {
	registry *session.Registry
	sender   *delivery.Sender
	store    ArtifactStore
	cfg      Config
	logger   zerolog.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

func New(registry *session.Registry, sender *delivery.Sender, store ArtifactStore, cfg Config, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		registry: registry,
		sender:   sender,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		tasks:    make(map[string]*task),
	}
}

// StartWorkflow registers a task for the session and runs the pipeline in
// its own goroutine, returning as soon as the task is registered. A second
// submission while the first is active fails fast with ErrAlreadyRunning
// and disturbs nothing.
func (s *Supervisor) StartWorkflow(run Run) error {
	if _, ok := s.registry.Get(run.SessionID); !ok {
		return fmt.Errorf("starting workflow: %w", session.ErrSessionNotFound)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.register(run, cancel); err != nil {
		cancel()
		return err
	}

	if err := s.registry.SetStatus(run.SessionID, session.StatusRunning); err != nil {
		s.logger.Warn().Err(err).Str("session_id", run.SessionID).Msg("could not mark session running")
	}
	s.sender.Send(run.SessionID, delivery.NewTaskStarted(run.SessionID))

	s.logger.Info().
		Str("session_id", run.SessionID).
		Str("kind", run.Kind).
		Msg("workflow started")

	go func() {
		defer cancel()
		s.run(ctx, run)
	}()
	go s.watch(run.SessionID)
	return nil
}

// Cancel requests cooperative cancellation. The run observes it at the
// next stage or loop-iteration boundary; an in-flight collaborator call
// finishes first and its result is discarded.
func (s *Supervisor) Cancel(sessionID string) error {
	s.mu.Lock()
	entry, ok := s.tasks[sessionID]
	s.mu.Unlock()
	if !ok {
		return ErrNoActiveTask
	}

	s.logger.Info().Str("session_id", sessionID).Msg("cancellation requested")
	entry.cancel()
	return nil
}

// Task returns a snapshot of the session's running task, if any.
func (s *Supervisor) Task(sessionID string) (TaskInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[sessionID]
	if !ok {
		return TaskInfo{}, false
	}
	return TaskInfo{
		SessionID:    sessionID,
		Kind:         entry.kind,
		Stage:        entry.cursor,
		StartedAt:    entry.startedAt,
		LastActivity: entry.lastActivity,
	}, true
}

// Count returns the number of running tasks.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// --- Task table ---

func (s *Supervisor) register(run Run, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[run.SessionID]; exists {
		return ErrAlreadyRunning
	}
	now := timeNow().UTC()
	s.tasks[run.SessionID] = &task{
		kind:         run.Kind,
		cancel:       cancel,
		startedAt:    now,
		lastActivity: now,
		armed:        true,
	}
	return nil
}

// touch records activity: it resets the stagnation clock, re-arms the
// watchdog and moves the stage cursor.
func (s *Supervisor) touch(sessionID, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[sessionID]
	if !ok {
		return
	}
	entry.lastActivity = timeNow().UTC()
	entry.armed = true
	if stage != "" {
		entry.cursor = stage
	}
}

// activity is the watchdog's one atomic read per cycle: existence, the
// activity timestamp and the armed flag come back from a single lock
// acquisition, so a teardown can never race the watchdog into reading a
// freed entry.
func (s *Supervisor) activity(sessionID string) (last time.Time, armed bool, exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[sessionID]
	if !ok {
		return time.Time{}, false, false
	}
	return entry.lastActivity, entry.armed, true
}

// markAlerted disarms the watchdog and resets the activity clock, so the
// alert itself does not immediately count as further stagnation.
func (s *Supervisor) markAlerted(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[sessionID]
	if !ok {
		return
	}
	entry.lastActivity = timeNow().UTC()
	entry.armed = false
}

func (s *Supervisor) removeTask(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, sessionID)
}

// --- Execution ---

func (s *Supervisor) run(ctx context.Context, run Run) {
	err := s.execute(ctx, run)
	s.teardown(ctx, run, err)
}

func (s *Supervisor) execute(ctx context.Context, run Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow panicked: %v", r)
		}
	}()
	sink := &runSink{sup: s, sessionID: run.SessionID}
	if err := run.Pipeline.Run(ctx, run.State, sink); err != nil {
		return err
	}
	// A cancel that lands during the final stage is still honored: the
	// run tears down as canceled and the finished artifact is discarded.
	return ctx.Err()
}

// teardown is the single exit path for every run, in a fixed order: stop
// the watchdog by removing the task entry (it starves on its next cycle),
// send the one final event, close the connection with the normal code if
// one is bound, and remove the session last.
func (s *Supervisor) teardown(ctx context.Context, run Run, runErr error) {
	var final delivery.Event
	var status session.Status

	switch {
	case runErr == nil:
		result, _ := run.State.GetString(workflow.KeyFinalReport)
		s.storeArtifact(ctx, run, result)
		final = delivery.NewCompleted(run.SessionID, result)
		status = session.StatusCompleted
	case errors.Is(runErr, context.Canceled):
		final = delivery.NewError(run.SessionID, "workflow canceled")
		status = session.StatusTerminated
	default:
		final = delivery.NewError(run.SessionID, runErr.Error())
		status = session.StatusTerminated
	}

	s.removeTask(run.SessionID)
	_ = s.registry.SetStatus(run.SessionID, status)
	s.sender.Send(run.SessionID, final)
	if conn, ok := s.registry.Conn(run.SessionID); ok {
		_ = conn.Close(session.CloseNormal)
	}
	s.registry.Remove(run.SessionID)

	evt := s.logger.Info()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		evt = s.logger.Error().Err(runErr)
	}
	evt.Str("session_id", run.SessionID).
		Str("kind", run.Kind).
		Str("status", string(status)).
		Msg("workflow finished")
}

// storeArtifact pushes the finalized report to the persistence
// collaborator. Failures are logged, never surfaced: the workflow outcome
// does not depend on the artifact store.
func (s *Supervisor) storeArtifact(ctx context.Context, run Run, result string) {
	if s.store == nil || result == "" {
		return
	}
	putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactPutTimeout)
	defer cancel()

	key := "report/" + run.Kind
	if err := s.store.Put(putCtx, run.OwnerID, key, []byte(result)); err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", run.SessionID).
			Str("key", key).
			Msg("artifact store rejected final report")
	}
}

// runSink feeds pipeline signals back into the supervisor: both calls
// count as activity for the watchdog, and both forward to the client as
// progress events.
type runSink struct {
	sup       *Supervisor
	sessionID string
}

func (k *runSink) Progress(stageName string, payload map[string]any) {
	k.sup.touch(k.sessionID, stageName)
	k.sup.sender.Send(k.sessionID, delivery.NewProgress(k.sessionID, stageName, payload))
}

func (k *runSink) StageCompleted(stageName string) {
	k.sup.touch(k.sessionID, stageName)
	k.sup.sender.Send(k.sessionID, delivery.NewProgress(k.sessionID, stageName, map[string]any{
		"status": "completed",
	}))
}
