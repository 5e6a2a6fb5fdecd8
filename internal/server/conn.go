package server

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/steward/internal/session"
	"github.com/HendryAvila/steward/internal/tools"
)

// eventMethod is the JSON-RPC method session events are delivered under.
const eventMethod = "notifications/steward/event"

// mcpConn adapts one connected MCP client to the session.Conn contract.
// Events become server-to-client notifications. Close is a no-op: the
// server does not own the client transport and cannot hang up a single
// session, so the close code is dropped here.
type mcpConn struct {
	srv      *server.MCPServer
	clientID string
}

func (c *mcpConn) SendEvent(payload map[string]any) error {
	return c.srv.SendNotificationToSpecificClient(c.clientID, eventMethod, payload)
}

func (c *mcpConn) Close(code int) error {
	return nil
}

// connBinder exposes the calling client's connection to the tool layer.
// Requests arriving without a client session (no transport attached)
// bind nothing; the session then runs event-less until the next submit.
func connBinder(srv *server.MCPServer) tools.ConnBinder {
	return func(ctx context.Context) (session.Conn, bool) {
		cs := server.ClientSessionFromContext(ctx)
		if cs == nil {
			return nil, false
		}
		return &mcpConn{srv: srv, clientID: cs.SessionID()}, true
	}
}
