package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/niteendewangan/Project-4Sem/internal/relay"
)

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "chat server is running")
}

// handleWebSocket upgrades the request and registers the resulting session
// with the relay. The session lives until its read pump exits.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	sess := newSession(conn, s.relay, s.log, s.cfg)
	if err := s.relay.Accept(sess); err != nil {
		// Duplicate identifiers cannot happen with per-accept UUIDs, and a
		// closed relay means the process is shutting down. Either way the
		// peer just sees the socket close.
		if !errors.Is(err, relay.ErrRelayClosed) {
			s.log.Error().Err(err).Str("conn_id", sess.ID()).Msg("relay rejected connection")
		}
		_ = sess.Close()
		return
	}

	go sess.writePump()
	sess.readPump()
}
