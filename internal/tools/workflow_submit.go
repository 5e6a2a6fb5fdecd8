package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/steward/internal/config"
	"github.com/HendryAvila/steward/internal/generate"
	"github.com/HendryAvila/steward/internal/research"
	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/supervisor"
	"github.com/HendryAvila/steward/internal/workflow"
)

// WorkflowSubmitTool handles the workflow_submit MCP tool.
// It builds the requested pipeline and hands it to the supervisor; the
// call returns as soon as the task is registered and every later signal
// arrives as an event notification.
type WorkflowSubmitTool struct {
	registry  *session.Registry
	sup       *supervisor.Supervisor
	generator generate.Generator
	defaults  config.Workflow
	bind      ConnBinder
	logger    zerolog.Logger
}

// NewWorkflowSubmitTool creates a WorkflowSubmitTool with the given collaborators.
func NewWorkflowSubmitTool(
	registry *session.Registry,
	sup *supervisor.Supervisor,
	generator generate.Generator,
	defaults config.Workflow,
	bind ConnBinder,
	logger zerolog.Logger,
) *WorkflowSubmitTool {
	return &WorkflowSubmitTool{
		registry:  registry,
		sup:       sup,
		generator: generator,
		defaults:  defaults,
		bind:      bind,
		logger:    logger,
	}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkflowSubmitTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_submit",
		mcp.WithDescription(
			"Submit a workflow for a session. Returns immediately after the task "+
				"is registered; progress, stagnation alerts and the final result "+
				"arrive as `notifications/steward/event` notifications. One task "+
				"per session: submitting while one is active is rejected.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to run the workflow under, from `session_open`."),
		),
		mcp.WithString("objective",
			mcp.Required(),
			mcp.Description("What the workflow should research or draft."),
		),
		mcp.WithString("kind",
			mcp.Description("Workflow kind: `research` (full pipeline with refinement) or `draft` (plan and compose only). Defaults to the configured kind."),
		),
		mcp.WithNumber("loop_cap",
			mcp.Description("Maximum refinement retries for `research`. 0 disables the loop. Defaults to the configured cap."),
		),
	)
}

// Handle processes the workflow_submit tool call.
func (t *WorkflowSubmitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := strings.TrimSpace(req.GetString("session_id", ""))
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	objective := strings.TrimSpace(req.GetString("objective", ""))
	if objective == "" {
		return mcp.NewToolResultError("objective is required"), nil
	}

	kind := research.Kind(req.GetString("kind", t.defaults.DefaultKind))
	if err := research.ValidateKind(kind); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loopCap := int(req.GetFloat("loop_cap", float64(t.defaults.LoopCap)))
	if loopCap < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("loop_cap must not be negative, got %d", loopCap)), nil
	}

	sess, ok := t.registry.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Session %q not found. Open one with `session_open`.", sessionID)), nil
	}

	// Rebind so events reach the submitting client even after a reconnect.
	if t.bind != nil {
		if conn, connOK := t.bind(ctx); connOK {
			if err := t.registry.Bind(sessionID, conn); err != nil {
				t.logger.Warn().Err(err).Str("session_id", sessionID).Msg("could not bind submitter connection")
			}
		}
	}

	pipeline, err := research.Build(kind, research.Deps{
		Generator: t.generator,
		LoopCap:   loopCap,
		Logger:    t.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	state := workflow.NewState()
	state.Set(research.KeyObjective, objective)

	err = t.sup.StartWorkflow(supervisor.Run{
		SessionID: sessionID,
		OwnerID:   sess.OwnerID,
		Kind:      string(kind),
		Pipeline:  pipeline,
		State:     state,
	})
	switch {
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %q already has a running workflow. Cancel it with `workflow_cancel` or wait for its final event.", sessionID,
		)), nil
	case errors.Is(err, session.ErrSessionNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("Session %q not found. Open one with `session_open`.", sessionID)), nil
	case err != nil:
		return nil, fmt.Errorf("starting workflow: %w", err)
	}

	response := fmt.Sprintf(
		"# Workflow Submitted\n\n"+
			"**Session ID:** `%s`\n"+
			"**Kind:** %s\n"+
			"**Loop cap:** %d\n\n"+
			"The task runs in the background. Watch for `progress` events and "+
			"a final `completed` or `error` event; on success the report is "+
			"also stored for owner `%s`.",
		sessionID, kind, loopCap, sess.OwnerID,
	)

	return mcp.NewToolResultText(response), nil
}
