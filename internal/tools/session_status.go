package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/supervisor"
)

// SessionStatusTool handles the session_status MCP tool.
// It shows one session's lifecycle state and, if a workflow is running,
// the task's stage cursor and activity timestamps.
type SessionStatusTool struct {
	registry *session.Registry
	sup      *supervisor.Supervisor
}

// NewSessionStatusTool creates a SessionStatusTool with the given collaborators.
func NewSessionStatusTool(registry *session.Registry, sup *supervisor.Supervisor) *SessionStatusTool {
	return &SessionStatusTool{registry: registry, sup: sup}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("session_status",
		mcp.WithDescription(
			"Show the current state of a session: status, owner, connection and, "+
				"when a workflow is running, the task's current stage and last activity.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to inspect, from `session_open`."),
		),
	)
}

// Handle processes the session_status tool call.
func (t *SessionStatusTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := strings.TrimSpace(req.GetString("session_id", ""))
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	sess, ok := t.registry.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Session %q not found. Open one with `session_open`.", sessionID)), nil
	}

	connected := "no"
	if sess.Connected {
		connected = "yes"
	}

	taskSection := "No workflow is running for this session.\n"
	if task, running := t.sup.Task(sessionID); running {
		stage := task.Stage
		if stage == "" {
			stage = "(not started)"
		}
		taskSection = fmt.Sprintf(
			"## Running Task\n\n"+
				"**Kind:** %s\n"+
				"**Stage:** %s\n"+
				"**Started:** %s\n"+
				"**Last activity:** %s\n",
			task.Kind, stage, stamp(task.StartedAt), stamp(task.LastActivity),
		)
	}

	response := fmt.Sprintf(
		"# Session Status\n\n"+
			"**Session ID:** `%s`\n"+
			"**Owner:** %s\n"+
			"**Status:** %s\n"+
			"**Connected:** %s\n"+
			"**Created:** %s\n\n"+
			"%s",
		sess.ID, sess.OwnerID, sess.Status, connected, stamp(sess.CreatedAt),
		taskSection,
	)

	return mcp.NewToolResultText(response), nil
}
