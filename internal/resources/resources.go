// Package resources implements MCP resource handlers for the steward server.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (steward://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/supervisor"
)

// Info is the static service identity reported alongside live counters.
type Info struct {
	Version   string
	Backend   string
	Provider  string
	StartedAt time.Time
}

// Handler manages steward resource endpoints.
type Handler struct {
	registry *session.Registry
	sup      *supervisor.Supervisor
	info     Info
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(registry *session.Registry, sup *supervisor.Supervisor, info Info) *Handler {
	return &Handler{registry: registry, sup: sup, info: info}
}

// statusPayload is the JSON shape of the status resource.
type statusPayload struct {
	Version         string                `json:"version"`
	StartedAt       time.Time             `json:"started_at"`
	UptimeSeconds   int                   `json:"uptime_seconds"`
	ArtifactBackend string                `json:"artifact_backend"`
	ModelProvider   string                `json:"model_provider"`
	SessionCount    int                   `json:"session_count"`
	TaskCount       int                   `json:"task_count"`
	Sessions        []session.Session     `json:"sessions"`
	Tasks           []supervisor.TaskInfo `json:"tasks"`
}

// StatusResource returns the MCP resource definition for service status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"steward://status",
		"Steward Service Status",
		mcp.WithResourceDescription("Service uptime, live sessions, running tasks and configured backends"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current service status as JSON.
func (h *Handler) HandleStatus(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions := h.registry.List()
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})

	tasks := make([]supervisor.TaskInfo, 0)
	for _, s := range sessions {
		if task, ok := h.sup.Task(s.ID); ok {
			tasks = append(tasks, task)
		}
	}

	payload := statusPayload{
		Version:         h.info.Version,
		StartedAt:       h.info.StartedAt.UTC(),
		UptimeSeconds:   int(timeNow().UTC().Sub(h.info.StartedAt).Seconds()),
		ArtifactBackend: h.info.Backend,
		ModelProvider:   h.info.Provider,
		SessionCount:    len(sessions),
		TaskCount:       h.sup.Count(),
		Sessions:        sessions,
		Tasks:           tasks,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
