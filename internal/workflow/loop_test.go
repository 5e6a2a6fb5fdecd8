package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// --- Helpers ---

func gradeStage(name string, runs *int, grade Grade) Stage {
	return NewStage(name, func(_ context.Context, st *State, _ EventSink) error {
		*runs++
		st.Set(KeyEvaluation, EvaluationResult{Grade: grade, Comment: "scripted"})
		return nil
	})
}

func countStage(name string, runs *int) Stage {
	return NewStage(name, func(context.Context, *State, EventSink) error {
		*runs++
		return nil
	})
}

func loopState(st *State) (LoopState, bool) {
	v, ok := st.Get(KeyLoopState)
	if !ok {
		return "", false
	}
	ls, _ := v.(LoopState)
	return ls, true
}

// --- Loop exits ---

func TestLoop_PassOnFirstIteration_SkipsRemediation(t *testing.T) {
	var evalRuns, remedRuns int
	loop := NewLoop("refine",
		gradeStage("evaluate", &evalRuns, GradePass),
		countStage("remediate", &remedRuns),
		3, zerolog.Nop())

	st := NewState()
	if err := loop.Run(context.Background(), st, Discard); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if evalRuns != 1 {
		t.Errorf("evaluator ran %d times, want 1", evalRuns)
	}
	if remedRuns != 0 {
		t.Errorf("remediation ran %d times, want 0 (pass escalates out immediately)", remedRuns)
	}
	if ls, _ := loopState(st); ls != LoopPassed {
		t.Errorf("loop state = %s, want passed", ls)
	}
}

func TestLoop_AlwaysFailing_RunsBodyCapPlusOneTimes(t *testing.T) {
	var evalRuns, remedRuns int
	loop := NewLoop("refine",
		gradeStage("evaluate", &evalRuns, GradeFail),
		countStage("remediate", &remedRuns),
		2, zerolog.Nop())

	st := NewState()
	if err := loop.Run(context.Background(), st, Discard); err != nil {
		t.Fatalf("cap exhaustion must not be an error, got: %v", err)
	}

	if evalRuns != 3 {
		t.Errorf("evaluator ran %d times, want 3 (cap 2 + 1)", evalRuns)
	}
	if remedRuns != 3 {
		t.Errorf("remediation ran %d times, want 3", remedRuns)
	}
	if ls, _ := loopState(st); ls != LoopCapReached {
		t.Errorf("loop state = %s, want cap_reached", ls)
	}
}

func TestLoop_ZeroCap_Disabled(t *testing.T) {
	var evalRuns, remedRuns int
	loop := NewLoop("refine",
		gradeStage("evaluate", &evalRuns, GradeFail),
		countStage("remediate", &remedRuns),
		0, zerolog.Nop())

	st := NewState()
	if err := loop.Run(context.Background(), st, Discard); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if evalRuns != 0 || remedRuns != 0 {
		t.Errorf("disabled loop ran stages: eval=%d remed=%d", evalRuns, remedRuns)
	}
	if _, ok := loopState(st); ok {
		t.Error("disabled loop should leave no loop state")
	}
}

func TestLoop_PassOnSecondIteration(t *testing.T) {
	var evalRuns, remedRuns int
	grades := []Grade{GradeFail, GradePass}
	evaluator := NewStage("evaluate", func(_ context.Context, st *State, _ EventSink) error {
		st.Set(KeyEvaluation, EvaluationResult{Grade: grades[evalRuns]})
		evalRuns++
		return nil
	})
	loop := NewLoop("refine", evaluator, countStage("remediate", &remedRuns), 3, zerolog.Nop())

	st := NewState()
	if err := loop.Run(context.Background(), st, Discard); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if evalRuns != 2 {
		t.Errorf("evaluator ran %d times, want 2", evalRuns)
	}
	if remedRuns != 1 {
		t.Errorf("remediation ran %d times, want 1", remedRuns)
	}
	if ls, _ := loopState(st); ls != LoopPassed {
		t.Errorf("loop state = %s, want passed", ls)
	}
}

// --- Missing / malformed verdicts ---

func TestLoop_MissingEvaluation_NeverImplicitPass(t *testing.T) {
	var evalRuns, remedRuns int
	silent := countStage("evaluate", &evalRuns) // writes no verdict at all
	loop := NewLoop("refine", silent, countStage("remediate", &remedRuns), 1, zerolog.Nop())

	st := NewState()
	if err := loop.Run(context.Background(), st, Discard); err != nil {
		t.Fatalf("missing verdict must not fail the loop: %v", err)
	}

	if evalRuns != 2 {
		t.Errorf("evaluator ran %d times, want 2 (missing verdict burns the iteration)", evalRuns)
	}
	if remedRuns != 2 {
		t.Errorf("remediation ran %d times, want 2", remedRuns)
	}
	if ls, _ := loopState(st); ls != LoopCapReached {
		t.Errorf("loop state = %s, want cap_reached", ls)
	}
}

func TestLoop_MalformedEvaluation_Continues(t *testing.T) {
	var remedRuns int
	malformed := NewStage("evaluate", func(_ context.Context, st *State, _ EventSink) error {
		st.Set(KeyEvaluation, "grade: pass") // wrong type, not a verdict
		return nil
	})
	loop := NewLoop("refine", malformed, countStage("remediate", &remedRuns), 1, zerolog.Nop())

	st := NewState()
	if err := loop.Run(context.Background(), st, Discard); err != nil {
		t.Fatalf("malformed verdict must not fail the loop: %v", err)
	}
	if ls, _ := loopState(st); ls != LoopCapReached {
		t.Errorf("loop state = %s, want cap_reached (malformed can never pass)", ls)
	}
	if remedRuns != 2 {
		t.Errorf("remediation ran %d times, want 2", remedRuns)
	}
}

// --- Stage failures and cancellation ---

func TestLoop_EvaluatorError_Aborts(t *testing.T) {
	boom := errors.New("model unavailable")
	var remedRuns int
	loop := NewLoop("refine",
		failingStage("evaluate", boom),
		countStage("remediate", &remedRuns),
		2, zerolog.Nop())

	st := NewState()
	err := loop.Run(context.Background(), st, Discard)

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if se.Stage != "evaluate" {
		t.Errorf("StageError.Stage = %s, want evaluate", se.Stage)
	}
	if remedRuns != 0 {
		t.Errorf("remediation ran %d times after evaluator failure, want 0", remedRuns)
	}
	if ls, _ := loopState(st); ls != LoopIterating {
		t.Errorf("loop state = %s, want iterating (aborted mid-flight)", ls)
	}
}

func TestLoop_RemediationError_Aborts(t *testing.T) {
	boom := errors.New("search backend down")
	var evalRuns int
	loop := NewLoop("refine",
		gradeStage("evaluate", &evalRuns, GradeFail),
		failingStage("remediate", boom),
		2, zerolog.Nop())

	err := loop.Run(context.Background(), NewState(), Discard)

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if se.Stage != "remediate" {
		t.Errorf("StageError.Stage = %s, want remediate", se.Stage)
	}
	if evalRuns != 1 {
		t.Errorf("evaluator ran %d times, want 1", evalRuns)
	}
}

func TestLoop_CancelObservedAtBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var remedRuns int

	// The evaluator cancels the run from inside its body; the loop must
	// notice before remediation starts.
	evaluator := NewStage("evaluate", func(_ context.Context, st *State, _ EventSink) error {
		cancel()
		st.Set(KeyEvaluation, EvaluationResult{Grade: GradeFail})
		return nil
	})
	loop := NewLoop("refine", evaluator, countStage("remediate", &remedRuns), 2, zerolog.Nop())

	err := loop.Run(ctx, NewState(), Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if remedRuns != 0 {
		t.Errorf("remediation ran %d times after cancel, want 0", remedRuns)
	}
}

func TestLoop_ReportsIterationProgress(t *testing.T) {
	var evalRuns, remedRuns int
	sink := &recordingSink{}
	loop := NewLoop("refine",
		gradeStage("evaluate", &evalRuns, GradeFail),
		countStage("remediate", &remedRuns),
		1, zerolog.Nop())

	if err := loop.Run(context.Background(), NewState(), sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	iterations := 0
	for _, name := range sink.progress {
		if name == "refine" {
			iterations++
		}
	}
	if iterations != 2 {
		t.Errorf("loop reported %d iterations, want 2", iterations)
	}
}

// --- evaluationFrom ---

func TestEvaluationFrom_PointerValue(t *testing.T) {
	st := NewState()
	st.Set(KeyEvaluation, &EvaluationResult{Grade: GradePass})

	res, err := evaluationFrom(st)
	if err != nil {
		t.Fatalf("evaluationFrom failed: %v", err)
	}
	if res.Grade != GradePass {
		t.Errorf("Grade = %s, want pass", res.Grade)
	}
}

func TestEvaluationFrom_UnknownGrade(t *testing.T) {
	st := NewState()
	st.Set(KeyEvaluation, EvaluationResult{Grade: Grade("maybe")})

	_, err := evaluationFrom(st)
	if !errors.Is(err, ErrEvaluationMissing) {
		t.Errorf("error = %v, want ErrEvaluationMissing", err)
	}
}

func TestEvaluationFrom_NilPointer(t *testing.T) {
	st := NewState()
	st.Set(KeyEvaluation, (*EvaluationResult)(nil))

	_, err := evaluationFrom(st)
	if !errors.Is(err, ErrEvaluationMissing) {
		t.Errorf("error = %v, want ErrEvaluationMissing", err)
	}
}
