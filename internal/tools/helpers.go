// Package tools implements the MCP tool surface of the steward server.
//
// Each tool is one file: a struct holding its collaborators (DIP), a
// Definition for registration and a Handle matching mcp-go's handler
// signature. Handlers distinguish caller mistakes (unknown session,
// invalid kind) from internal failures: the former come back as tool
// error results, the latter as returned errors.
package tools

import (
	"context"
	"time"

	"github.com/HendryAvila/steward/internal/session"
)

// ConnBinder resolves the calling client's connection handle from a
// request context. The server supplies the transport-specific
// implementation; tests supply fakes. A false return means the transport
// cannot address this caller, which only costs event deliverability.
type ConnBinder func(ctx context.Context) (session.Conn, bool)

// stamp renders timestamps for tool responses.
func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
