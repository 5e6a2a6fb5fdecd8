package workflow

import (
	"errors"
	"fmt"
)

// KeyEvaluation is the state key an evaluator stage writes its verdict to
// and the loop's escalation check reads it from.
const KeyEvaluation = "evaluation_result"

// Grade is an evaluator's verdict on the current artifact.
type Grade string

const (
	GradePass Grade = "pass"
	GradeFail Grade = "fail"
)

// EvaluationResult is what an evaluator stage records about the artifact
// under refinement. FollowUpItems feed the remediation stage.
type EvaluationResult struct {
	Grade         Grade    `json:"grade"`
	Comment       string   `json:"comment,omitempty"`
	FollowUpItems []string `json:"follow_up_items,omitempty"`
}

// ErrEvaluationMissing marks an absent or malformed evaluation entry. The
// loop treats it as "continue": it consumes an iteration and can never
// produce an implicit pass.
var ErrEvaluationMissing = errors.New("workflow: evaluation result missing or malformed")

// evaluationFrom reads the evaluator's verdict out of the run state.
func evaluationFrom(st *State) (EvaluationResult, error) {
	v, ok := st.Get(KeyEvaluation)
	if !ok {
		return EvaluationResult{}, fmt.Errorf("%w: no %s entry", ErrEvaluationMissing, KeyEvaluation)
	}

	var res EvaluationResult
	switch r := v.(type) {
	case EvaluationResult:
		res = r
	case *EvaluationResult:
		if r == nil {
			return EvaluationResult{}, fmt.Errorf("%w: nil entry", ErrEvaluationMissing)
		}
		res = *r
	default:
		return EvaluationResult{}, fmt.Errorf("%w: unexpected type %T", ErrEvaluationMissing, v)
	}

	if res.Grade != GradePass && res.Grade != GradeFail {
		return EvaluationResult{}, fmt.Errorf("%w: unknown grade %q", ErrEvaluationMissing, res.Grade)
	}
	return res, nil
}
