package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}

// ResolvePasswordHash prefers a configured bcrypt hash and otherwise hashes
// the plain password once at startup.
func ResolvePasswordHash(hash, plain string) (string, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return "", errors.New("BASIC_AUTH_PASSWORD_HASH is not a bcrypt hash")
		}
		return hash, nil
	}
	if plain == "" {
		return "", errors.New("no password configured")
	}
	hashed, err := HashPassword(plain)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
