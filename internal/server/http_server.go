package server

import (
	"context"
	"net/http"
	"time"
)

// CreateServer creates and configures an HTTP server with the specified port
// and handler. WebSocket connections are unaffected by the timeouts: the
// upgrade hijacks the connection and clears its deadlines.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ShutdownServer gracefully shuts down the HTTP server, waiting up to
// timeout for active requests to finish.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.Shutdown(ctx)
}
