package config

import (
	"os"
	"strings"
)

// SecureSessionCookie marks the worker-session cookie Secure (HTTPS only).
//
// Set via env:
// - SESSION_COOKIE_SECURE=true
func SecureSessionCookie() bool {
	return envFlag("SESSION_COOKIE_SECURE")
}

// SkipInitialSuggestions disables the catalog lookup performed when a record is checked out.
//
// Set via env:
// - SKIP_INITIAL_SUGGESTIONS=true
func SkipInitialSuggestions() bool {
	return envFlag("SKIP_INITIAL_SUGGESTIONS")
}

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
