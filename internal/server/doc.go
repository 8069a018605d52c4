// Package server implements the HTTP and WebSocket surface of the chat
// service.
//
// The implementation is organized into specialized files: configuration,
// routing, account handlers, the websocket session that bridges connections
// into the relay, origin checking, and per-connection rate limiting.
package server
