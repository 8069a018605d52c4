package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/niteendewangan/Project-4Sem/internal/relay"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before the read
	// side gives up on it.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings keep the read
	// deadline alive.
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is how many undelivered messages a session may queue
	// before the relay drops it as a stalled consumer.
	sendBufferSize = 256
)

var (
	errSessionClosed  = errors.New("session closed")
	errSendBufferFull = errors.New("send buffer full")
)

// session is one live WebSocket connection. It implements relay.Conn:
// inbound frames go to the relay, outbound deliveries are queued on a
// buffered channel drained by the write pump.
type session struct {
	id    string
	conn  *websocket.Conn
	relay *relay.Relay
	log   zerolog.Logger

	limiter        *tokenBucket
	rateLimit      RateLimitConfig
	maxMessageSize int64

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, rly *relay.Relay, logger zerolog.Logger, cfg Config) *session {
	id := uuid.NewString()
	s := &session{
		id:    id,
		conn:  conn,
		relay: rly,
		log: logger.With().
			Str("conn_id", id).
			Str("remote_addr", conn.RemoteAddr().String()).
			Logger(),
		limiter:        newTokenBucket(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
		maxMessageSize: cfg.MaxMessageSize,
		send:           make(chan []byte, sendBufferSize),
		done:           make(chan struct{}),
	}
	conn.SetReadLimit(cfg.MaxMessageSize)
	return s
}

// ID returns the identifier assigned at accept time.
func (s *session) ID() string { return s.id }

// Send queues msg for the write pump without blocking. It fails when the
// session is closed or its buffer is full, which the relay treats as this
// recipient missing the message.
func (s *session) Send(msg []byte) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}

	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return errSessionClosed
	default:
		return errSendBufferFull
	}
}

// Close tears down the session exactly once. The write pump notices via the
// done channel; the read pump unblocks when the socket closes.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// readPump relays inbound frames until the connection dies, then removes
// the session from the relay.
func (s *session) readPump() {
	defer func() {
		s.relay.Disconnect(s.id)
		_ = s.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadEnd(err)
			return
		}

		if !s.limiter.take() {
			s.log.Warn().
				Int("burst", s.rateLimit.Burst).
				Dur("refill_interval", s.rateLimit.RefillInterval).
				Msg("rate limit exceeded, discarding message")
			continue
		}

		msg, err := processMessage(raw)
		if err != nil {
			s.log.Warn().Err(err).Msg("discarding malformed message")
			continue
		}

		s.relay.Receive(s.id, msg)
	}
}

// processMessage validates a raw frame as JSON and compacts it. The payload
// is otherwise passed through untouched. Compacted JSON carries no raw
// newlines, so the write pump's newline-separated coalescing never splits a
// message.
func processMessage(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writePump drains the send queue, coalescing backlogged messages into one
// newline-separated frame, and keeps the connection alive with pings. Every
// queued payload has been through processMessage, so none contains a raw
// newline of its own.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				_ = w.Close()
				return
			}
			queued := len(s.send)
			for i := 0; i < queued; i++ {
				if _, err := w.Write([]byte{'\n'}); err != nil {
					_ = w.Close()
					return
				}
				if _, err := w.Write(<-s.send); err != nil {
					_ = w.Close()
					return
				}
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *session) logReadEnd(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warn().Int64("limit", s.maxMessageSize).Msg("message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		s.log.Info().Msg("peer disconnected")
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		s.log.Debug().Err(err).Msg("connection closed")
	default:
		s.log.Warn().Err(err).Msg("websocket read error")
	}
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
