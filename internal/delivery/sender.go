package delivery

import (
	"github.com/rs/zerolog"

	"github.com/HendryAvila/steward/internal/session"
)

// Sender delivers events over whatever connection is currently bound to a
// session. Sends never fail upward: a broken connection is unbound through
// the registry and the event is dropped. The registry keeps the connection
// field single-writer, so a client reconnecting mid-send cannot race the
// unbind.
type Sender struct {
	registry *session.Registry
	logger   zerolog.Logger
}

func NewSender(registry *session.Registry, logger zerolog.Logger) *Sender {
	return &Sender{registry: registry, logger: logger}
}

// Send reports whether the event reached the client. false means either no
// connection was bound or the send failed and the connection was dropped;
// callers use the return only to decide bookkeeping such as session status,
// never to abort work.
func (s *Sender) Send(sessionID string, ev Event) bool {
	conn, ok := s.registry.Conn(sessionID)
	if !ok {
		s.logger.Debug().
			Str("session_id", sessionID).
			Str("kind", string(ev.Kind)).
			Msg("no connection bound, event dropped")
		return false
	}

	if err := conn.SendEvent(ev.Params()); err != nil {
		s.logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("kind", string(ev.Kind)).
			Msg("event delivery failed, unbinding connection")
		s.registry.Unbind(sessionID)
		return false
	}
	return true
}
