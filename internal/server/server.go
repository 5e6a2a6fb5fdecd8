// Package server wires all steward components and creates the MCP server
// instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/steward/internal/artifacts"
	"github.com/HendryAvila/steward/internal/config"
	"github.com/HendryAvila/steward/internal/delivery"
	"github.com/HendryAvila/steward/internal/generate"
	"github.com/HendryAvila/steward/internal/logging"
	"github.com/HendryAvila/steward/internal/prompts"
	"github.com/HendryAvila/steward/internal/resources"
	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/supervisor"
	"github.com/HendryAvila/steward/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// configPath selects the YAML config file; empty means defaults plus
// an optional steward.yaml in the working directory. The returned
// cleanup function closes the artifact store and must be called on
// shutdown (typically via defer). It is always non-nil and safe to
// call even when initialization failed.
func New(ctx context.Context, configPath string) (*server.MCPServer, func(), error) {
	// --- Load configuration ---

	// .env is developer convenience; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, noop, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		return nil, noop, fmt.Errorf("configuring logging: %w", err)
	}

	// --- Create shared dependencies ---

	store, err := artifacts.Open(ctx, cfg.Artifacts)
	if err != nil {
		return nil, noop, fmt.Errorf("opening artifact store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("artifact store close")
		}
	}

	generator, err := generate.Open(ctx, cfg.Model)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("opening model provider: %w", err)
	}

	registry := session.NewRegistry()
	sender := delivery.NewSender(registry, logging.With("delivery"))
	sup := supervisor.New(registry, sender, store, supervisor.Config{
		CheckInterval:   cfg.Watchdog.CheckInterval(),
		StagnationAfter: cfg.Watchdog.StagnationAfter(),
		AlertBackoff:    cfg.Watchdog.AlertBackoff(),
	}, logging.With("supervisor"))

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"steward",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	bind := connBinder(s)
	startedAt := time.Now().UTC()

	// --- Register session tools ---

	openTool := tools.NewSessionOpenTool(registry, sender, bind)
	s.AddTool(openTool.Definition(), openTool.Handle)

	sessionStatusTool := tools.NewSessionStatusTool(registry, sup)
	s.AddTool(sessionStatusTool.Definition(), sessionStatusTool.Handle)

	closeTool := tools.NewSessionCloseTool(registry, sup)
	s.AddTool(closeTool.Definition(), closeTool.Handle)

	// --- Register workflow tools ---

	submitTool := tools.NewWorkflowSubmitTool(registry, sup, generator, cfg.Workflow, bind, logging.With("tools"))
	s.AddTool(submitTool.Definition(), submitTool.Handle)

	cancelTool := tools.NewWorkflowCancelTool(sup)
	s.AddTool(cancelTool.Definition(), cancelTool.Handle)

	// --- Register service tools ---

	serviceStatusTool := tools.NewServiceStatusTool(registry, sup, tools.ServiceInfo{
		Version:   Version,
		Backend:   string(cfg.Artifacts.Backend),
		Provider:  string(cfg.Model.Provider),
		StartedAt: startedAt,
	})
	s.AddTool(serviceStatusTool.Definition(), serviceStatusTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(registry, sup, resources.Info{
		Version:   Version,
		Backend:   string(cfg.Artifacts.Backend),
		Provider:  string(cfg.Model.Provider),
		StartedAt: startedAt,
	})
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	logging.Info().
		Str("version", Version).
		Str("backend", string(cfg.Artifacts.Backend)).
		Str("provider", string(cfg.Model.Provider)).
		Msg("steward server ready")

	return s, cleanup, nil
}

// noop is the default cleanup returned when initialization fails before
// anything needing teardown exists.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// client how to drive steward effectively.
func serverInstructions() string {
	return `You have access to steward, an MCP server that runs long
multi-stage workflows (research reports, drafts) in the background and
streams progress back to you while you keep talking to the user.

## WHEN TO USE steward

Suggest a steward workflow when the user:
- Asks for a researched report, market overview, or competitive analysis
- Asks for a longer written piece that benefits from a plan-then-write flow
- Says things like "research X for me", "put together a report on..."

Do NOT start a workflow for quick factual questions you can answer
directly.

## How It Works

steward tools return immediately. The workflow itself runs server-side;
its progress arrives as notifications (method notifications/steward/event)
carrying kind, session_id, and a payload. You will see:
- task_started      — the workflow began
- progress          — a stage finished (payload.stage_name names it)
- stagnation        — no activity for a while; the task may be stuck
- completed         — the final report is in payload.result
- error             — the workflow failed or was canceled
- session_created   — a session was opened

## Workflow

1. Call session_open with an owner_id identifying the user. Keep the
   returned session id for every later call.
2. Call workflow_submit with the session_id, the user's objective, and
   optionally kind (research | draft) and loop_cap.
3. Keep the conversation going. Relay progress events to the user in one
   line each ("planning done", "researching...").
4. On a completed event, present payload.result to the user in full.
   On an error event, tell the user what failed.
5. On a stagnation event, tell the user the task looks stuck and offer
   workflow_cancel.
6. Use session_status or service_status when the user asks how things
   are going. Close the session with session_close when the user is done.

## Rules

- One running workflow per session. Open a second session for parallel
  work.
- A canceled workflow emits a final error event with "workflow canceled".
- Completed reports are also persisted server-side per owner, keyed by
  workflow kind.
- workflow_submit rebinds event delivery to the client that called it,
  so resubmitting after a reconnect restores the event stream.

## Kinds

- research: plan, parallel source lookups, an evaluate/remediate loop,
  compose, and reference finalization. Slower, cited.
- draft: plan then compose. Fast, no lookups, no citations.`
}
