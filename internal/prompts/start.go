// Package prompts implements MCP prompt handlers for the steward server.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the steward-start MCP prompt.
// It guides the AI through the session → submit → events flow.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("steward-start",
		mcp.WithPromptDescription(
			"Start a research workflow. This walks through opening a session, "+
				"submitting an objective and following the event stream to the "+
				"final report.",
		),
		mcp.WithArgument("objective",
			mcp.ArgumentDescription("What to research or draft"),
		),
		mcp.WithArgument("kind",
			mcp.ArgumentDescription(
				"Workflow kind: 'research' (full pipeline with refinement) or 'draft' (plan and compose only). Default: research",
			),
		),
	)
}

// Handle processes the steward-start prompt request.
func (p *StartPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	objective := "(ask me for the objective first)"
	if args := req.Params.Arguments; args != nil {
		if o, ok := args["objective"]; ok && o != "" {
			objective = o
		}
	}

	kind := "research"
	if args := req.Params.Arguments; args != nil {
		if k, ok := args["kind"]; ok && k != "" {
			kind = k
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Run a %s workflow", kind),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to run a '%s' workflow for: %s\n\n"+
						"Please:\n"+
						"1. Run `session_open` with an owner_id that identifies me\n"+
						"2. Run `workflow_submit` with the returned session_id, my objective and kind='%s'\n"+
						"3. The submit returns immediately; progress arrives as `notifications/steward/event` notifications. Relay `progress` and `stagnation` events to me as they come in\n"+
						"4. When the final `completed` event arrives, show me the report; on an `error` event, show the message and suggest what to adjust\n"+
						"5. Use `session_status` if I ask how far along the task is, and `workflow_cancel` if I ask you to stop",
					kind, objective, kind,
				)),
			},
		},
	}, nil
}
