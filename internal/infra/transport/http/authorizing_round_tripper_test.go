package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mkrupp/chroniclex/internal/domain"
	http_ "github.com/mkrupp/chroniclex/internal/infra/transport/http"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// echoAuthorization answers with the given status and reports the
// Authorization header it received.
func echoAuthorization(status int, seen *string) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		*seen = req.Header.Get(http_.AuthorizationHeader)

		rec := httptest.NewRecorder()
		rec.WriteHeader(status)

		return rec.Result(), nil
	})
}

func TestCredentialHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token    domain.AuthToken
		expected string
		ok       bool
	}{
		{"tok123", "Token tok123", true},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		got, ok := http_.CredentialHeader(tt.token)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("CredentialHeader(%q) = %q, %v", tt.token, got, ok)
		}
	}
}

func TestAuthorizingRoundTripper_ReadsTokenAtSendTime(t *testing.T) {
	t.Parallel()

	current := domain.AuthToken("first")

	var seen string

	rt := &http_.AuthorizingRoundTripper{
		Base:   echoAuthorization(http.StatusOK, &seen),
		Tokens: http_.TokenSourceFunc(func() domain.AuthToken { return current }),
	}

	req := httptest.NewRequest(http.MethodGet, "http://backend/api/blogs/", nil)

	// the token changes between building and sending the request
	current = "second"

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if seen != "Token second" {
		t.Errorf("sent Authorization %q, want %q", seen, "Token second")
	}

	if req.Header.Get(http_.AuthorizationHeader) != "" {
		t.Error("the caller's request must not be modified")
	}
}

func TestAuthorizingRoundTripper_StripsHeaderWithoutToken(t *testing.T) {
	t.Parallel()

	var seen string

	rt := &http_.AuthorizingRoundTripper{
		Base:   echoAuthorization(http.StatusOK, &seen),
		Tokens: http_.TokenSourceFunc(func() domain.AuthToken { return "" }),
	}

	req := httptest.NewRequest(http.MethodGet, "http://backend/api/blogs/", nil)
	req.Header.Set(http_.AuthorizationHeader, "Token leftover")

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if seen != "" {
		t.Errorf("expected no Authorization header, got %q", seen)
	}
}

func TestAuthorizingRoundTripper_OnRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    domain.AuthToken
		status   int
		expected int32
	}{
		{"rejected with token", "tok", http.StatusUnauthorized, 1},
		{"rejected without token", "", http.StatusUnauthorized, 0},
		{"forbidden with token", "tok", http.StatusForbidden, 0},
		{"accepted", "tok", http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				seen     string
				rejected atomic.Int32
			)

			rt := &http_.AuthorizingRoundTripper{
				Base:   echoAuthorization(tt.status, &seen),
				Tokens: http_.TokenSourceFunc(func() domain.AuthToken { return tt.token }),
				OnRejected: func(_ context.Context, tok domain.AuthToken) {
					if tok != tt.token {
						t.Errorf("rejected %q, want %q", tok, tt.token)
					}

					rejected.Add(1)
				},
			}

			resp, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://backend/", nil))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if got := rejected.Load(); got != tt.expected {
				t.Errorf("OnRejected called %d times, want %d", got, tt.expected)
			}
		})
	}
}
