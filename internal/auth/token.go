package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken reports a bearer token that failed verification for any
// reason: malformed, wrong signature, or expired.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the verified identity carried by a token.
type Claims struct {
	UserID string
	Email  string
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// defaultTTL applies when NewTokens is handed a non-positive lifetime, which
// would otherwise mint tokens that are expired on arrival.
const defaultTTL = 24 * time.Hour

// Tokens mints and verifies the HS256 bearer tokens issued at login.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens returns a token issuer signing with secret. Tokens expire after
// ttl; non-positive values fall back to defaultTTL.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token for the given user.
func (t *Tokens) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning the claims it
// carries. Any failure is reported as ErrInvalidToken.
func (t *Tokens) Verify(token string) (Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: claims.Subject, Email: claims.Email}, nil
}
