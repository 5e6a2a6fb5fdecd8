package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/steward/internal/delivery"
	"github.com/HendryAvila/steward/internal/session"
)

// SessionOpenTool handles the session_open MCP tool.
// It creates a session for an owner and binds the caller's connection so
// events for the session reach this client.
type SessionOpenTool struct {
	registry *session.Registry
	sender   *delivery.Sender
	bind     ConnBinder
}

// NewSessionOpenTool creates a SessionOpenTool with the given collaborators.
func NewSessionOpenTool(registry *session.Registry, sender *delivery.Sender, bind ConnBinder) *SessionOpenTool {
	return &SessionOpenTool{registry: registry, sender: sender, bind: bind}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionOpenTool) Definition() mcp.Tool {
	return mcp.NewTool("session_open",
		mcp.WithDescription(
			"Open a new session for an owner. The session starts in `awaiting_input` "+
				"and is the addressee of every event later workflow runs emit. "+
				"Returns the session id to pass to `workflow_submit`.",
		),
		mcp.WithString("owner_id",
			mcp.Required(),
			mcp.Description("Identifier of the session owner, e.g. a user or agent id. Stored artifacts are keyed by it."),
		),
	)
}

// Handle processes the session_open tool call.
func (t *SessionOpenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ownerID := strings.TrimSpace(req.GetString("owner_id", ""))
	if ownerID == "" {
		return mcp.NewToolResultError("owner_id is required"), nil
	}

	sess := t.registry.Create(ownerID)

	if t.bind != nil {
		if conn, ok := t.bind(ctx); ok {
			if err := t.registry.Bind(sess.ID, conn); err != nil {
				return nil, fmt.Errorf("binding connection: %w", err)
			}
		}
	}

	t.sender.Send(sess.ID, delivery.NewSessionCreated(sess.ID))

	response := fmt.Sprintf(
		"# Session Opened\n\n"+
			"**Session ID:** `%s`\n"+
			"**Owner:** %s\n"+
			"**Status:** %s\n"+
			"**Created:** %s\n\n"+
			"Submit work with `workflow_submit`. Events for this session arrive "+
			"as `notifications/steward/event` notifications.",
		sess.ID, sess.OwnerID, sess.Status, stamp(sess.CreatedAt),
	)

	return mcp.NewToolResultText(response), nil
}
