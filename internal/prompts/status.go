package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the steward-status MCP prompt.
// It instructs the AI to read and present the service state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("steward-status",
		mcp.WithPromptDescription(
			"Check the steward service: uptime, live sessions, running tasks "+
				"and configured backends.",
		),
	)
}

// Handle processes the steward-status prompt request.
func (p *StatusPrompt) Handle(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Steward Service Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `service_status` to check the steward service.\n\n" +
						"Then:\n" +
						"1. Show me the uptime and counters in a clear, visual format\n" +
						"2. List the live sessions and flag any stuck in `disconnected_running`\n" +
						"3. If a session of mine has a running task, run `session_status` on it and summarize the stage it is in",
				),
			},
		},
	}, nil
}
