package workflow

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Sequential runs its stages strictly in order. The first stage error
// aborts the remainder; cancellation is checked before each stage and
// never interrupts one mid-body.
type Sequential struct {
	name   string
	stages []Stage
	logger zerolog.Logger
}

func NewSequential(name string, logger zerolog.Logger, stages ...Stage) *Sequential {
	return &Sequential{name: name, stages: stages, logger: logger}
}

func (s *Sequential) Name() string { return s.name }

func (s *Sequential) Run(ctx context.Context, st *State, sink EventSink) error {
	for _, stage := range s.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.Debug().
			Str("pipeline", s.name).
			Str("stage", stage.Name()).
			Msg("stage starting")

		if err := stage.Run(ctx, st, sink); err != nil {
			return wrapStage(stage.Name(), err)
		}
		sink.StageCompleted(stage.Name())
	}
	return nil
}

// wrapStage attributes an error to a stage exactly once. Context errors
// stay bare so cancellation remains recognizable at the top of the run.
func wrapStage(stage string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
