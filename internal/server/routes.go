package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Routes builds the chi router with all application routes and the common
// middleware stack.
func (s *Server) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(
		withCORS(),
		withLogger(s.log),
		middleware.Recoverer,
	)

	router.Get("/", s.handleHealth)
	router.Get("/ws", s.handleWebSocket)
	router.Get("/test", s.handleTestPage)

	router.Route("/api", func(api chi.Router) {
		api.Post("/register", s.handleRegister)
		api.Post("/login", s.handleLogin)
		api.With(s.requireAuth).Get("/users", s.handleListUsers)
	})

	return router
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.WithContext(req.Context())
			handler.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
