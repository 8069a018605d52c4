// Command server runs the chat backend: the accounts API and the WebSocket
// broadcast relay behind a single HTTP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/niteendewangan/Project-4Sem/internal/auth"
	"github.com/niteendewangan/Project-4Sem/internal/relay"
	"github.com/niteendewangan/Project-4Sem/internal/server"
	"github.com/niteendewangan/Project-4Sem/internal/store"
)

const serviceName = "chat-server"

// shutdownTimeout bounds how long the HTTP server and the relay may take to
// drain on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

var opts struct {
	Port               string
	AllowedOrigins     string
	MaxMessageSize     int64
	RateLimitBurst     int
	RateRefillInterval time.Duration
	MongoURI           string
	MongoDB            string
	JWTSecret          string
	TokenTTL           time.Duration
	Debug              bool
}

func main() {
	app := &cli.App{
		Name:    serviceName,
		Usage:   "user accounts API and real-time broadcast relay",
		Version: commitHash(),
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "port",
				Usage:       "address the HTTP server listens on",
				Value:       ":8080",
				EnvVars:     []string{"PORT"},
				Destination: &opts.Port,
			},
			&cli.StringFlag{
				Name:        "allowed-origins",
				Usage:       "comma-separated origins allowed to open websocket connections, * allows all",
				Value:       "http://localhost:8080",
				EnvVars:     []string{"ALLOWED_ORIGINS"},
				Destination: &opts.AllowedOrigins,
			},
			&cli.Int64Flag{
				Name:        "max-message-size",
				Usage:       "maximum inbound websocket message size in bytes",
				Value:       512,
				EnvVars:     []string{"MAX_MESSAGE_SIZE"},
				Destination: &opts.MaxMessageSize,
			},
			&cli.IntFlag{
				Name:        "rate-limit-burst",
				Usage:       "messages a connection may send before throttling",
				Value:       5,
				EnvVars:     []string{"RATE_LIMIT_BURST"},
				Destination: &opts.RateLimitBurst,
			},
			&cli.DurationFlag{
				Name:        "rate-limit-refill-interval",
				Usage:       "interval over which the rate limit burst refills",
				Value:       time.Second,
				EnvVars:     []string{"RATE_LIMIT_REFILL_INTERVAL"},
				Destination: &opts.RateRefillInterval,
			},
			&cli.StringFlag{
				Name:        "mongo-uri",
				Usage:       "MongoDB connection string",
				Value:       "mongodb://localhost:27017",
				EnvVars:     []string{"MONGO_URI"},
				Destination: &opts.MongoURI,
			},
			&cli.StringFlag{
				Name:        "mongo-db",
				Usage:       "MongoDB database name",
				Value:       "chatapp",
				EnvVars:     []string{"MONGO_DB"},
				Destination: &opts.MongoDB,
			},
			&cli.StringFlag{
				Name:        "jwt-secret",
				Usage:       "secret used to sign login tokens",
				Value:       "dev-secret",
				EnvVars:     []string{"JWT_SECRET"},
				Destination: &opts.JWTSecret,
			},
			&cli.DurationFlag{
				Name:        "token-ttl",
				Usage:       "how long issued login tokens stay valid",
				Value:       24 * time.Hour,
				EnvVars:     []string{"TOKEN_TTL"},
				Destination: &opts.TokenTTL,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "enable debug-level logging",
				EnvVars:     []string{"DEBUG"},
				Destination: &opts.Debug,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := store.Connect(ctx, opts.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("disconnecting from mongo")
		}
	}()

	users := store.NewUsers(client.Database(opts.MongoDB))
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	rly := relay.New(logger)
	tokens := auth.NewTokens(opts.JWTSecret, opts.TokenTTL)

	cfg := server.Config{
		Port:           opts.Port,
		AllowedOrigins: server.ParseOrigins(opts.AllowedOrigins),
		MaxMessageSize: opts.MaxMessageSize,
		RateLimit: server.RateLimitConfig{
			Burst:          opts.RateLimitBurst,
			RefillInterval: opts.RateRefillInterval,
		},
	}

	srv := server.New(cfg, logger, rly, users, tokens)
	httpServer := server.CreateServer(cfg.Port, srv.Routes())

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Port).Msg("starting http server")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown signal received")
	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}
	if err := rly.Shutdown(shutdownTimeout); err != nil {
		logger.Warn().Err(err).Msg("relay shutdown")
	}
	return nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func commitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
		return info.Main.Version
	}
	return "unknown"
}
