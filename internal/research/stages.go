package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/steward/internal/refs"
	"github.com/HendryAvila/steward/internal/workflow"
)

// Fan-out limits per stage. A rambling plan or evaluator cannot trigger
// unbounded collaborator calls.
const (
	maxTopics    = 5
	maxFollowUps = 5
)

// lookup is the JSON shape the generator is asked to return for research
// and follow-up calls.
type lookup struct {
	Findings string   `json:"findings"`
	Sources  []source `json:"sources"`
}

type source struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Domain     string  `json:"domain"`
	Snippet    string  `json:"snippet"`
	Confidence float64 `json:"confidence"`
}

// planStage turns the objective into a research plan.
func planStage(deps Deps) workflow.Stage {
	return workflow.NewStage(StagePlan, func(ctx context.Context, st *workflow.State, _ workflow.EventSink) error {
		objective, ok := st.GetString(KeyObjective)
		if !ok || strings.TrimSpace(objective) == "" {
			return errors.New("no objective in run state")
		}

		plan, err := deps.Generator.Generate(ctx, planPrompt(objective))
		if err != nil {
			return fmt.Errorf("generating plan: %w", err)
		}
		st.Set(KeyPlan, plan)
		return nil
	})
}

// researchStage runs one collaborator lookup per plan topic, ingests the
// returned sources and accumulates the findings.
func researchStage(deps Deps, collector *refs.Collector) workflow.Stage {
	return workflow.NewStage(StageResearch, func(ctx context.Context, st *workflow.State, sink workflow.EventSink) error {
		objective, _ := st.GetString(KeyObjective)
		plan, ok := st.GetString(KeyPlan)
		if !ok {
			return errors.New("no research plan in run state")
		}

		topics := topicsFromPlan(plan)
		if len(topics) == 0 {
			topics = []string{objective}
		}

		var b strings.Builder
		for _, topic := range topics {
			sink.Progress(StageResearch, map[string]any{"topic": topic})
			section, err := runLookup(ctx, deps, collector, objective, topic)
			if err != nil {
				return fmt.Errorf("researching %q: %w", topic, err)
			}
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", topic, section)
		}
		st.Set(KeyFindings, strings.TrimSpace(b.String()))
		return nil
	})
}

// evaluateStage grades the findings and records the verdict for the loop.
// An unusable response clears the verdict, which the loop reads as
// "continue"; only a generator failure aborts the run.
func evaluateStage(deps Deps) workflow.Stage {
	return workflow.NewStage(StageEvaluate, func(ctx context.Context, st *workflow.State, _ workflow.EventSink) error {
		objective, _ := st.GetString(KeyObjective)
		findings, ok := st.GetString(KeyFindings)
		if !ok {
			return errors.New("no findings in run state")
		}

		st.Delete(workflow.KeyEvaluation)
		raw, err := deps.Generator.Generate(ctx, evaluatePrompt(objective, findings))
		if err != nil {
			return fmt.Errorf("generating evaluation: %w", err)
		}

		var res workflow.EvaluationResult
		if err := decodeModelJSON(raw, &res); err != nil {
			deps.Logger.Warn().Err(err).Msg("evaluation response unusable")
			return nil
		}
		st.Set(workflow.KeyEvaluation, res)
		return nil
	})
}

// remediateStage follows up on the evaluator's queries and amends the
// findings. Without usable queries it falls back to one deepening pass
// over the objective itself.
func remediateStage(deps Deps, collector *refs.Collector) workflow.Stage {
	return workflow.NewStage(StageRemediate, func(ctx context.Context, st *workflow.State, sink workflow.EventSink) error {
		objective, _ := st.GetString(KeyObjective)
		findings, _ := st.GetString(KeyFindings)

		queries := followUpQueries(st)
		if len(queries) == 0 {
			queries = []string{objective}
		}
		if len(queries) > maxFollowUps {
			queries = queries[:maxFollowUps]
		}

		var b strings.Builder
		b.WriteString(findings)
		for _, q := range queries {
			sink.Progress(StageRemediate, map[string]any{"query": q})
			section, err := runLookup(ctx, deps, collector, objective, q)
			if err != nil {
				return fmt.Errorf("following up %q: %w", q, err)
			}
			fmt.Fprintf(&b, "\n\n## Follow-up: %s\n\n%s", q, section)
		}
		st.Set(KeyFindings, strings.TrimSpace(b.String()))
		return nil
	})
}

// composeStage writes the report draft, citing collected sources with
// inline reference tags.
func composeStage(deps Deps, collector *refs.Collector) workflow.Stage {
	return workflow.NewStage(StageCompose, func(ctx context.Context, st *workflow.State, _ workflow.EventSink) error {
		objective, ok := st.GetString(KeyObjective)
		if !ok {
			return errors.New("no objective in run state")
		}
		plan, _ := st.GetString(KeyPlan)
		findings, _ := st.GetString(KeyFindings)

		draft, err := deps.Generator.Generate(ctx, composePrompt(objective, plan, findings, collector.List()))
		if err != nil {
			return fmt.Errorf("generating report: %w", err)
		}
		st.Set(KeyDraft, draft)
		return nil
	})
}

// finalizeStage resolves the draft's reference tags and publishes the
// final report for the supervisor.
func finalizeStage(collector *refs.Collector) workflow.Stage {
	return workflow.NewStage(StageFinalize, func(_ context.Context, st *workflow.State, _ workflow.EventSink) error {
		draft, ok := st.GetString(KeyDraft)
		if !ok {
			return errors.New("no draft in run state")
		}
		st.Set(workflow.KeyFinalReport, collector.Finalize(draft))
		return nil
	})
}

// runLookup performs one research call. A response that is not the
// expected JSON keeps its raw text as findings and contributes no sources.
func runLookup(ctx context.Context, deps Deps, collector *refs.Collector, objective, query string) (string, error) {
	raw, err := deps.Generator.Generate(ctx, lookupPrompt(objective, query))
	if err != nil {
		return "", err
	}

	var lk lookup
	if err := decodeModelJSON(raw, &lk); err != nil || strings.TrimSpace(lk.Findings) == "" {
		deps.Logger.Debug().Str("query", query).Msg("lookup response not structured, keeping raw text")
		return strings.TrimSpace(raw), nil
	}

	for _, src := range lk.Sources {
		if src.URL == "" {
			continue
		}
		collector.Ingest(src.URL, src.Title, src.Domain, src.Snippet, src.Confidence)
	}
	return strings.TrimSpace(lk.Findings), nil
}

func followUpQueries(st *workflow.State) []string {
	v, ok := st.Get(workflow.KeyEvaluation)
	if !ok {
		return nil
	}
	res, ok := v.(workflow.EvaluationResult)
	if !ok {
		return nil
	}
	return res.FollowUpItems
}

// topicPrefix matches the list marker of a plan line: "1. ", "2) ", "- ",
// "* " and friends.
var topicPrefix = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s+`)

// topicsFromPlan extracts research topics from the plan, one per list
// line. Lines without a list marker (headers, prose) are skipped and the
// count is capped at maxTopics.
func topicsFromPlan(plan string) []string {
	var topics []string
	for _, line := range strings.Split(plan, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		marker := topicPrefix.FindString(line)
		if marker == "" {
			continue
		}
		topic := strings.TrimSpace(line[len(marker):])
		if topic == "" {
			continue
		}
		topics = append(topics, topic)
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}

// decodeModelJSON unmarshals the JSON object embedded in generated text,
// tolerating code fences and prose around it.
func decodeModelJSON(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return errors.New("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}
