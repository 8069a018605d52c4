package relay

// Conn is the transport-side handle the relay delivers through. The relay
// treats the payload as opaque bytes; framing, serialization, and keepalive
// belong to the implementation.
//
// Send must not block indefinitely: a transport that cannot take the message
// promptly (full buffer, closing socket) should fail fast, which the relay
// treats as that one recipient missing the message. ID must be stable for
// the life of the connection and unique across all connections ever
// accepted.
type Conn interface {
	// ID returns the identifier assigned when the connection was accepted.
	ID() string

	// Send queues msg for delivery to the remote peer.
	Send(msg []byte) error

	// Close tears down the transport. Closing an already-closed connection
	// must be safe.
	Close() error
}
