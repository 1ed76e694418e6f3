package authclient

import (
	"context"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// AuthClient is the backend's account API.
type AuthClient interface {
	// Signup registers a new account. Rejected input is reported as a
	// *domain.ValidationError keyed by field.
	Signup(ctx context.Context, req domain.SignupRequest) (domain.User, error)

	// Login exchanges credentials for a token. Bad credentials are reported
	// as a *domain.AuthenticationError.
	Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)

	// Logout invalidates the current token on the backend.
	Logout(ctx context.Context) error
}
