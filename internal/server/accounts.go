package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/niteendewangan/Project-4Sem/internal/auth"
	"github.com/niteendewangan/Project-4Sem/internal/store"
)

// minPasswordLength is the smallest password accepted at registration.
const minPasswordLength = 6

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  store.User `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleRegister creates an account. The password is bcrypt-hashed before it
// reaches the store; duplicate emails answer 409.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	switch {
	case name == "":
		writeError(w, http.StatusBadRequest, "name is required")
		return
	case email == "" || !strings.Contains(email, "@"):
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	case len(req.Password) < minPasswordLength:
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("hashing password")
		writeError(w, http.StatusInternalServerError, "could not register user")
		return
	}

	user, err := s.users.Create(r.Context(), store.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("creating user")
		writeError(w, http.StatusInternalServerError, "could not register user")
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID.Hex()).Msg("user registered")
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin verifies credentials and issues a bearer token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.FindByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("looking up user")
			writeError(w, http.StatusInternalServerError, "could not log in")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.Email)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("issuing token")
		writeError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// handleListUsers returns every registered user, newest first.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if claims, ok := claimsFromContext(r.Context()); ok {
		zerolog.Ctx(r.Context()).Debug().Str("user_id", claims.UserID).Msg("listing users")
	}

	users, err := s.users.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("listing users")
		writeError(w, http.StatusInternalServerError, "could not list users")
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type claimsContextKey struct{}

// requireAuth admits only requests carrying a valid bearer token and makes
// the verified claims available to downstream handlers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext returns the claims stored by requireAuth.
func claimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(auth.Claims)
	return claims, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
