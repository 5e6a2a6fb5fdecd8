// Package research defines the workflow catalog: the named stage pipelines
// a submission can run, assembled from the generation collaborator and the
// reference collector.
package research

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/HendryAvila/steward/internal/generate"
	"github.com/HendryAvila/steward/internal/refs"
	"github.com/HendryAvila/steward/internal/workflow"
)

// Kind names a pipeline in the catalog.
type Kind string

const (
	// KindResearch is the full pipeline: plan, research with source
	// collection, bounded refinement, compose, finalize.
	KindResearch Kind = "research"
	// KindDraft skips research and refinement: plan, compose, finalize.
	KindDraft Kind = "draft"
)

var validKinds = map[Kind]bool{
	KindResearch: true,
	KindDraft:    true,
}

// ValidateKind checks if a workflow kind is one the catalog can build.
func ValidateKind(k Kind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid workflow kind: %q (valid: research, draft)", k)
	}
	return nil
}

// Stage names as they appear in progress events.
const (
	StagePlan      = "plan"
	StageResearch  = "research"
	StageEvaluate  = "evaluate"
	StageRemediate = "remediate"
	StageCompose   = "compose"
	StageFinalize  = "finalize"

	loopName = "refine"
)

// State keys written by the stages of this catalog. KeyObjective must be
// set by the submitter before the run starts.
const (
	KeyObjective = "objective"
	KeyPlan      = "research_plan"
	KeyFindings  = "research_findings"
	KeyDraft     = "draft_report"
)

// Deps carries what a pipeline build needs. LoopCap bounds the refinement
// loop of KindResearch; 0 disables it.
type Deps struct {
	Generator generate.Generator
	LoopCap   int
	Logger    zerolog.Logger
}

// Build assembles the stage pipeline for a workflow kind. Every build gets
// its own reference collector, so concurrent runs never share citation
// numbering.
func Build(kind Kind, deps Deps) (workflow.Stage, error) {
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("building %s pipeline: no generator", kind)
	}

	collector := refs.NewCollector(deps.Logger)
	switch kind {
	case KindDraft:
		return workflow.NewSequential(string(kind), deps.Logger,
			planStage(deps),
			composeStage(deps, collector),
			finalizeStage(collector),
		), nil
	default:
		return workflow.NewSequential(string(kind), deps.Logger,
			planStage(deps),
			researchStage(deps, collector),
			workflow.NewLoop(loopName,
				evaluateStage(deps),
				remediateStage(deps, collector),
				deps.LoopCap,
				deps.Logger,
			),
			composeStage(deps, collector),
			finalizeStage(collector),
		), nil
	}
}
