package server

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/niteendewangan/Project-4Sem/internal/auth"
	"github.com/niteendewangan/Project-4Sem/internal/relay"
	"github.com/niteendewangan/Project-4Sem/internal/store"
)

// UserStore is the slice of the user store the HTTP handlers consume.
// *store.Users satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, user store.User) (store.User, error)
	FindByEmail(ctx context.Context, email string) (store.User, error)
	List(ctx context.Context) ([]store.User, error)
}

// Server bundles the dependencies behind the HTTP surface: configuration,
// logger, the broadcast relay, the user store, and the token issuer.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	relay    *relay.Relay
	users    UserStore
	tokens   *auth.Tokens
	origins  *originChecker
	upgrader websocket.Upgrader
}

// New assembles a Server from its dependencies. Zero-valued config fields
// fall back to their defaults.
func New(cfg Config, logger zerolog.Logger, rly *relay.Relay, users UserStore, tokens *auth.Tokens) *Server {
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:     cfg,
		log:     logger,
		relay:   rly,
		users:   users,
		tokens:  tokens,
		origins: newOriginChecker(cfg.AllowedOrigins, logger),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.check,
	}
	return s
}
