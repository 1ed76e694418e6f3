package http

import (
	"context"
	"net/http"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// AuthorizationHeader is the header the credential travels in.
const AuthorizationHeader = "Authorization"

// TokenSource yields the current token. It is consulted once per request, at
// send time.
type TokenSource interface {
	Token() domain.AuthToken
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() domain.AuthToken

// Token implements TokenSource.
func (f TokenSourceFunc) Token() domain.AuthToken {
	return f()
}

// RejectionHandler is called when the backend answers 401 to a request that
// carried token.
type RejectionHandler func(ctx context.Context, token domain.AuthToken)

// CredentialHeader is the header injection as a pure function of the current
// token: the Authorization value and true when a token is present.
func CredentialHeader(token domain.AuthToken) (string, bool) {
	if token.IsZero() {
		return "", false
	}

	return token.Header(), true
}

// AuthorizingRoundTripper attaches the session token to every outbound request
// that is sent while a token is present, and removes any Authorization header
// otherwise. It neither retries nor refreshes.
type AuthorizingRoundTripper struct {
	Base       http.RoundTripper
	Tokens     TokenSource
	OnRejected RejectionHandler
}

var _ http.RoundTripper = (*AuthorizingRoundTripper)(nil)

// RoundTrip implements http.RoundTripper.
func (rt *AuthorizingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var tok domain.AuthToken
	if rt.Tokens != nil {
		tok = rt.Tokens.Token()
	}

	out := req.Clone(req.Context())

	if value, ok := CredentialHeader(tok); ok {
		out.Header.Set(AuthorizationHeader, value)
	} else {
		out.Header.Del(AuthorizationHeader)
	}

	resp, err := base(rt.Base).RoundTrip(out)
	if err != nil {
		//nolint:wrapcheck
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !tok.IsZero() && rt.OnRejected != nil {
		rt.OnRejected(req.Context(), tok)
	}

	return resp, nil
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}

	return rt
}
