// Steward: background workflow MCP server
//
// An MCP server that runs long research and drafting workflows in the
// background, streaming progress events to the connected client while
// the conversation keeps going.
//
// Usage:
//
//	steward serve [config.yaml]   # Start MCP server (stdio transport)
//	steward version               # Print the version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/steward/internal/release"
	stewardserver "github.com/HendryAvila/steward/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		configPath := ""
		if len(os.Args) > 2 {
			configPath = os.Args[2]
		}
		if err := run(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("steward v%s\n", stewardserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(configPath string) error {
	// An interrupt during startup aborts backend dials. Once serving,
	// the stdio server installs its own signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	s, cleanup, err := stewardserver.New(ctx, configPath)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check. Prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	return server.ServeStdio(s)
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if a newer release exists. Best-effort: network failures
// are silently ignored.
func checkForUpdates() {
	result := release.CheckVersion(stewardserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Steward v%s — Background Workflow MCP Server

Usage:
  steward serve [config.yaml]   Start the MCP server (stdio transport)
  steward version               Print the version

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "steward": {
        "command": "steward",
        "args": ["serve"]
      }
    }
  }

Learn more: https://github.com/HendryAvila/steward
`, stewardserver.Version)
}
