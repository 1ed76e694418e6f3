package domain

import (
	"errors"
	"strings"
)

// AuthScheme is the scheme the backend expects in the Authorization header.
const AuthScheme = "Token"

// AuthTokenKey is the key the token is persisted under.
const AuthTokenKey = "authToken"

var (
	// ErrNoAuthToken is returned when a token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrInvalidAuthToken is returned when a stored token cannot be read back.
	ErrInvalidAuthToken = errors.New("invalid auth token")
)

// AuthToken is the opaque credential issued by the backend at login.
type AuthToken string

// String returns the raw token.
func (t AuthToken) String() string {
	return string(t)
}

// IsZero reports whether the token is empty.
func (t AuthToken) IsZero() bool {
	return strings.TrimSpace(string(t)) == ""
}

// Header returns the Authorization header value for the token.
func (t AuthToken) Header() string {
	return AuthScheme + " " + string(t)
}
