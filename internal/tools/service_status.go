package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/supervisor"
)

// ServiceInfo is the static identity the status surface reports alongside
// the live counters.
type ServiceInfo struct {
	Version   string
	Backend   string
	Provider  string
	StartedAt time.Time
}

// ServiceStatusTool handles the service_status MCP tool.
type ServiceStatusTool struct {
	registry *session.Registry
	sup      *supervisor.Supervisor
	info     ServiceInfo
}

// NewServiceStatusTool creates a ServiceStatusTool with the given collaborators.
func NewServiceStatusTool(registry *session.Registry, sup *supervisor.Supervisor, info ServiceInfo) *ServiceStatusTool {
	return &ServiceStatusTool{registry: registry, sup: sup, info: info}
}

// Definition returns the MCP tool definition for registration.
func (t *ServiceStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("service_status",
		mcp.WithDescription(
			"Show service health: uptime, live sessions, running tasks and the "+
				"configured artifact backend and model provider.",
		),
	)
}

// Handle processes the service_status tool call.
func (t *ServiceStatusTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uptime := timeNow().UTC().Sub(t.info.StartedAt).Round(time.Second)
	sessions := t.registry.List()
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})

	sessionSection := "No live sessions.\n"
	if len(sessions) > 0 {
		var table strings.Builder
		table.WriteString("| Session | Owner | Status | Connected |\n")
		table.WriteString("|---------|-------|--------|-----------|\n")
		for _, s := range sessions {
			connected := "no"
			if s.Connected {
				connected = "yes"
			}
			fmt.Fprintf(&table, "| `%s` | %s | %s | %s |\n", s.ID, s.OwnerID, s.Status, connected)
		}
		sessionSection = "## Sessions\n\n" + table.String()
	}

	response := fmt.Sprintf(
		"# Service Status\n\n"+
			"**Version:** %s\n"+
			"**Uptime:** %s\n"+
			"**Live sessions:** %d\n"+
			"**Running tasks:** %d\n"+
			"**Artifact backend:** %s\n"+
			"**Model provider:** %s\n\n"+
			"%s",
		t.info.Version, uptime, len(sessions), t.sup.Count(),
		t.info.Backend, t.info.Provider,
		sessionSection,
	)

	return mcp.NewToolResultText(response), nil
}
