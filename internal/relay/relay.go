// Package relay implements the broadcast core of the chat service: a
// registry of live connections and a fan-out that delivers every inbound
// message to the connections registered at the moment it arrives.
//
// The relay owns no transport. It delivers through the Conn interface and is
// constructed with an explicit lifecycle so the surrounding server can inject
// it wherever connections are accepted, and tests can drive it with fakes.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrConnRegistered reports an Accept whose connection identifier is
	// already present in the registry. Identifiers are assigned once at
	// accept time and never reused, so this is an internal invariant
	// failure: the registration attempt is rejected and the relay keeps
	// serving the connections it already has.
	ErrConnRegistered = errors.New("relay: connection id already registered")

	// ErrRelayClosed reports an Accept issued after Shutdown.
	ErrRelayClosed = errors.New("relay: closed")
)

// defaultSendConcurrency bounds how many recipient deliveries run at once
// during a single broadcast.
const defaultSendConcurrency = 32

// Relay fans inbound messages out to every registered connection. All
// methods are safe for concurrent use from independent connection
// goroutines.
type Relay struct {
	log zerolog.Logger

	mu     sync.RWMutex
	conns  map[string]Conn
	closed bool

	// inflight tracks broadcasts still delivering so Shutdown can wait
	// for them.
	inflight sync.WaitGroup

	sendConcurrency int
}

// New returns a Relay ready to accept connections.
func New(logger zerolog.Logger) *Relay {
	return &Relay{
		log:             logger.With().Str("component", "relay").Logger(),
		conns:           make(map[string]Conn),
		sendConcurrency: defaultSendConcurrency,
	}
}

// Accept registers conn under its identifier. It fails with
// ErrConnRegistered when the identifier is already present and with
// ErrRelayClosed after Shutdown; in both cases the registry is left
// untouched and the caller is expected to close the rejected connection.
func (r *Relay) Accept(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRelayClosed
	}
	if _, dup := r.conns[conn.ID()]; dup {
		return ErrConnRegistered
	}

	r.conns[conn.ID()] = conn
	r.log.Info().Str("conn_id", conn.ID()).Int("total", len(r.conns)).Msg("connection registered")
	return nil
}

// Disconnect removes the connection from the registry if present. It is
// idempotent: disconnecting an unknown or already-removed identifier is a
// no-op. A connection removed while a broadcast is in flight is simply
// skipped by that broadcast.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	_, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if ok {
		r.log.Info().Str("conn_id", connID).Int("total", total).Msg("connection removed")
	}
}

// Receive broadcasts msg to every connection registered at the moment of
// the call, the sender included. The recipient set is a snapshot:
// connections that join later never see msg, and connections removed while
// the fan-out runs are skipped. Delivery is fire-and-forget per recipient;
// a recipient whose Send fails is dropped from the registry and closed, and
// the failure is never surfaced to the sender.
//
// A connID that is no longer registered makes Receive a no-op: the sender
// raced its own disconnect, which is not an error.
func (r *Relay) Receive(connID string, msg []byte) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	if _, ok := r.conns[connID]; !ok {
		r.mu.RUnlock()
		r.log.Debug().Str("conn_id", connID).Msg("dropping message from unregistered connection")
		return
	}
	recipients := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		recipients = append(recipients, c)
	}
	r.inflight.Add(1)
	r.mu.RUnlock()
	defer r.inflight.Done()

	r.log.Debug().Str("conn_id", connID).Int("recipients", len(recipients)).Msg("broadcasting message")

	// Deliveries run concurrently with a bound so a single slow transport
	// cannot serialize the fan-out. Failures are collected per recipient;
	// the group never propagates them.
	var (
		g        errgroup.Group
		failedMu sync.Mutex
		failed   []Conn
	)
	g.SetLimit(r.sendConcurrency)
	for _, c := range recipients {
		c := c
		g.Go(func() error {
			// A connection removed since the snapshot was taken is
			// skipped, not treated as a failure.
			if !r.isRegistered(c.ID()) {
				return nil
			}
			if err := c.Send(msg); err != nil {
				r.log.Debug().Err(err).Str("conn_id", c.ID()).Msg("recipient delivery failed")
				failedMu.Lock()
				failed = append(failed, c)
				failedMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	r.dropFailed(failed)
}

func (r *Relay) isRegistered(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[connID]
	return ok
}

// dropFailed unregisters connections whose delivery failed and closes their
// transports. Connections already removed by a concurrent Disconnect are
// left alone.
func (r *Relay) dropFailed(failed []Conn) {
	if len(failed) == 0 {
		return
	}

	r.mu.Lock()
	dropped := failed[:0]
	for _, c := range failed {
		if _, ok := r.conns[c.ID()]; ok {
			delete(r.conns, c.ID())
			dropped = append(dropped, c)
		}
	}
	total := len(r.conns)
	r.mu.Unlock()

	for _, c := range dropped {
		_ = c.Close()
		r.log.Info().Str("conn_id", c.ID()).Int("total", total).Msg("connection dropped after failed delivery")
	}
}

// Len reports how many connections are currently registered.
func (r *Relay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Shutdown closes every registered connection, empties the registry, and
// waits up to timeout for in-flight broadcasts to finish. Accepts issued
// after Shutdown fail with ErrRelayClosed. It returns
// context.DeadlineExceeded when broadcasts are still delivering at the
// deadline.
func (r *Relay) Shutdown(timeout time.Duration) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[string]Conn)
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	r.log.Info().Int("closed", len(conns)).Msg("relay shut down")

	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
