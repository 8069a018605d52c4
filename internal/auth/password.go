// Package auth covers the credential concerns of the chat service: bcrypt
// password hashing and signed bearer tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash for storage. The plaintext is never
// persisted or logged.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
