package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	http_ "github.com/mkrupp/chroniclex/internal/infra/transport/http"
)

const (
	SignupPath = "/auth/signup/"
	LoginPath  = "/auth/login/"
	LogoutPath = "/auth/logout/"
)

// ErrNoTokenIssued is returned when a successful login response carries no token.
var ErrNoTokenIssued = errors.New("login response without token")

// HTTPClient implements AuthClient on the REST backend.
type HTTPClient struct {
	api http_.APICaller
	log logging.Logger
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient calling the backend through api.
func NewHTTPClient(api http_.APICaller) *HTTPClient {
	return &HTTPClient{
		api: api,
		log: logging.GetLogger("svc.authsvc.http_client"),
	}
}

// Signup implements AuthClient.Signup.
func (c *HTTPClient) Signup(ctx context.Context, req domain.SignupRequest) (user domain.User, err error) {
	log := c.log.With(logging.Group("user", "username", req.Username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "signup failed", "error", err)
		} else {
			log.InfoContext(ctx, "signed up", "id", user.ID.String())
		}
	}()

	if err := c.api.Do(ctx, http.MethodPost, SignupPath, nil, req, &user); err != nil {
		return domain.User{}, fmt.Errorf("signup: %w", err)
	}

	return user, nil
}

// Login implements AuthClient.Login. The backend reports bad credentials as
// a validation failure without field errors; that is turned into an
// authentication error carrying the backend's messages.
func (c *HTTPClient) Login(ctx context.Context, req domain.LoginRequest) (resp domain.LoginResponse, err error) {
	log := c.log.With(logging.Group("user", "identifier", req.Identifier))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.InfoContext(ctx, "logged in", "id", resp.UserID.String())
		}
	}()

	if err := c.api.Do(ctx, http.MethodPost, LoginPath, nil, req, &resp); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.OnlyNonFieldErrors() {
			err = &domain.AuthenticationError{Messages: validationErr.Messages(domain.NonFieldErrorsKey)}
		}

		return domain.LoginResponse{}, fmt.Errorf("login: %w", err)
	}

	if domain.AuthToken(resp.Token).IsZero() {
		return domain.LoginResponse{}, fmt.Errorf("login: %w", errors.Join(domain.ErrAuthentication, ErrNoTokenIssued))
	}

	return resp, nil
}

// Logout implements AuthClient.Logout.
func (c *HTTPClient) Logout(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			c.log.WarnContext(ctx, "logout failed", "error", err)
		} else {
			c.log.DebugContext(ctx, "logged out")
		}
	}()

	var ack domain.DetailResponse
	if err := c.api.Do(ctx, http.MethodPost, LogoutPath, nil, nil, &ack); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}
