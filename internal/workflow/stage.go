package workflow

import (
	"context"
	"fmt"
)

// Stage is one unit of pipeline work. Composers are themselves stages, so
// pipelines nest.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *State, sink EventSink) error
}

// EventSink receives pipeline signals. Both calls double as activity for
// stagnation tracking, so composers invoke StageCompleted even when the
// client has no interest in the stage itself.
type EventSink interface {
	// Progress reports stage-level detail while work is in flight.
	Progress(stageName string, payload map[string]any)
	// StageCompleted marks the end of one stage body.
	StageCompleted(stageName string)
}

type discardSink struct{}

func (discardSink) Progress(string, map[string]any) {}
func (discardSink) StageCompleted(string)           {}

// Discard is an EventSink that drops everything.
var Discard EventSink = discardSink{}

// NewStage wraps a function as a leaf stage. Leaf bodies run on a
// non-cancelable child context: cancellation is honored at composer
// boundaries only, so an in-flight collaborator call always runs to
// completion and its result is simply discarded.
func NewStage(name string, fn func(ctx context.Context, st *State, sink EventSink) error) Stage {
	return &funcStage{name: name, fn: fn}
}

type funcStage struct {
	name string
	fn   func(ctx context.Context, st *State, sink EventSink) error
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Run(ctx context.Context, st *State, sink EventSink) error {
	return s.fn(context.WithoutCancel(ctx), st, sink)
}

// StageError reports which stage a pipeline failed in. Composers wrap a
// failing stage's error exactly once; nested composers pass it through.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("workflow: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
