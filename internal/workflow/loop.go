package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// KeyLoopState is where the loop records how it exited.
const KeyLoopState = "loop_state"

// LoopState tracks the refinement loop through its lifecycle.
type LoopState string

const (
	LoopIterating  LoopState = "iterating"
	LoopPassed     LoopState = "passed"
	LoopCapReached LoopState = "cap_reached"
)

// ErrIterationCapReached marks a loop that exhausted its iteration budget.
// It is a terminal success: the pipeline proceeds with the best artifact
// produced so far, and the marker is only ever logged, never returned.
var ErrIterationCapReached = errors.New("workflow: loop iteration cap reached")

// Loop is the bounded refinement composer. Each iteration runs the
// evaluator, reads its verdict from the state, and either escalates out
// (pass), or runs the remediation stage and goes around again. With cap
// retries the body runs at most cap+1 times; a cap of 0 disables the loop
// entirely.
//
// A missing or malformed verdict counts as "continue". It burns an
// iteration like any failed grade, so a broken evaluator can never pass
// an artifact implicitly and the loop still terminates at the cap.
type Loop struct {
	name        string
	evaluator   Stage
	remediation Stage
	cap         int
	logger      zerolog.Logger
}

func NewLoop(name string, evaluator, remediation Stage, iterationCap int, logger zerolog.Logger) *Loop {
	return &Loop{
		name:        name,
		evaluator:   evaluator,
		remediation: remediation,
		cap:         iterationCap,
		logger:      logger,
	}
}

func (l *Loop) Name() string { return l.name }

func (l *Loop) Run(ctx context.Context, st *State, sink EventSink) error {
	if l.cap <= 0 {
		l.logger.Debug().Str("loop", l.name).Msg("iteration cap is 0, loop disabled")
		return nil
	}

	st.Set(KeyLoopState, LoopIterating)

	maxRuns := l.cap + 1
	for i := 1; i <= maxRuns; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sink.Progress(l.name, map[string]any{"iteration": i})

		if err := l.evaluator.Run(ctx, st, sink); err != nil {
			return wrapStage(l.evaluator.Name(), err)
		}
		sink.StageCompleted(l.evaluator.Name())

		verdict, err := evaluationFrom(st)
		if err != nil {
			// Continue, never pass. See ErrEvaluationMissing.
			l.logger.Warn().
				Str("loop", l.name).
				Int("iteration", i).
				Err(err).
				Msg("evaluation unusable, continuing refinement")
		} else if verdict.Grade == GradePass {
			st.Set(KeyLoopState, LoopPassed)
			l.logger.Debug().
				Str("loop", l.name).
				Int("iteration", i).
				Msg("evaluation passed, loop done")
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.remediation.Run(ctx, st, sink); err != nil {
			return wrapStage(l.remediation.Name(), err)
		}
		sink.StageCompleted(l.remediation.Name())
	}

	st.Set(KeyLoopState, LoopCapReached)
	capErr := fmt.Errorf("%w: %d iterations", ErrIterationCapReached, maxRuns)
	l.logger.Info().
		Str("loop", l.name).
		Str("reason", capErr.Error()).
		Msg("proceeding with last artifact")
	return nil
}
