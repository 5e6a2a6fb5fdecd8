package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/supervisor"
)

// SessionCloseTool handles the session_close MCP tool.
// It disposes of an idle session. Sessions that run a workflow are
// removed by the supervisor's teardown instead, so closing is rejected
// while a task is active.
type SessionCloseTool struct {
	registry *session.Registry
	sup      *supervisor.Supervisor
}

// NewSessionCloseTool creates a SessionCloseTool with the given collaborators.
func NewSessionCloseTool(registry *session.Registry, sup *supervisor.Supervisor) *SessionCloseTool {
	return &SessionCloseTool{registry: registry, sup: sup}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionCloseTool) Definition() mcp.Tool {
	return mcp.NewTool("session_close",
		mcp.WithDescription(
			"Close an idle session and remove its record. Rejected while a "+
				"workflow is running; cancel the workflow first or wait for its "+
				"final event, which removes the session on its own.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to close, from `session_open`."),
		),
	)
}

// Handle processes the session_close tool call.
func (t *SessionCloseTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := strings.TrimSpace(req.GetString("session_id", ""))
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	sess, ok := t.registry.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Session %q not found.", sessionID)), nil
	}
	if _, running := t.sup.Task(sessionID); running {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %q has a running workflow. Cancel it with `workflow_cancel` before closing.", sessionID,
		)), nil
	}

	t.registry.Remove(sessionID)

	response := fmt.Sprintf(
		"# Session Closed\n\n"+
			"**Session ID:** `%s`\n"+
			"**Owner:** %s\n\n"+
			"The session record was removed.",
		sess.ID, sess.OwnerID,
	)

	return mcp.NewToolResultText(response), nil
}
