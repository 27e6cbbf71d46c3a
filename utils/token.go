package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// SessionClaim binds a worker session id to the cookie that carries it.
type SessionClaim struct {
	SessionId string `json:"sid"`
	jwt.StandardClaims
}

func SessionTokenGenerate(secret []byte, sessionId string, lifespan time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("session secret is empty")
	}
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaim{
		SessionId: sessionId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(secret)
}

// SessionTokenValidate returns the session id carried by a valid, unexpired token.
func SessionTokenValidate(secret []byte, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claim, ok := parsed.Claims.(*SessionClaim)
	if !ok || !parsed.Valid || claim.SessionId == "" {
		return "", errors.New("invalid session token")
	}
	return claim.SessionId, nil
}
