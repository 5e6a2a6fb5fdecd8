package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/steward/internal/supervisor"
)

// WorkflowCancelTool handles the workflow_cancel MCP tool.
// Cancellation is cooperative: the running workflow observes it at the
// next stage or loop boundary, and an in-flight collaborator call
// finishes first with its result discarded.
type WorkflowCancelTool struct {
	sup *supervisor.Supervisor
}

// NewWorkflowCancelTool creates a WorkflowCancelTool with the given supervisor.
func NewWorkflowCancelTool(sup *supervisor.Supervisor) *WorkflowCancelTool {
	return &WorkflowCancelTool{sup: sup}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkflowCancelTool) Definition() mcp.Tool {
	return mcp.NewTool("workflow_cancel",
		mcp.WithDescription(
			"Request cancellation of a session's running workflow. The task "+
				"stops at its next stage boundary and the session receives a "+
				"final `error` event reporting the cancellation.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session whose workflow should stop."),
		),
	)
}

// Handle processes the workflow_cancel tool call.
func (t *WorkflowCancelTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := strings.TrimSpace(req.GetString("session_id", ""))
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	err := t.sup.Cancel(sessionID)
	if errors.Is(err, supervisor.ErrNoActiveTask) {
		return mcp.NewToolResultError(fmt.Sprintf("No active task for session %q.", sessionID)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("canceling workflow: %w", err)
	}

	response := fmt.Sprintf(
		"# Cancellation Requested\n\n"+
			"**Session ID:** `%s`\n\n"+
			"The workflow stops at its next stage boundary. A final `error` "+
			"event with message \"workflow canceled\" closes out the session.",
		sessionID,
	)

	return mcp.NewToolResultText(response), nil
}
