package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// ErrInvalidBaseURL is returned when the configured API base URL is not absolute.
var ErrInvalidBaseURL = errors.New("api base url must be an absolute http(s) url")

// APICaller performs one JSON call against the REST backend.
type APICaller interface {
	Do(ctx context.Context, method, path string, query url.Values, in, out any) error
}

// APIClientConfig holds configuration for the REST backend client.
type APIClientConfig struct {
	// BaseURL is the root all API paths are relative to
	BaseURL string `env:"BASE_URL" default:"http://localhost:8000/api"`

	// Timeout bounds every API call
	Timeout time.Duration `env:"TIMEOUT" default:"10s"`

	// UserAgent is sent with every API call
	UserAgent string `env:"USER_AGENT" default:"chroniclex-console"`
}

// APIClient performs JSON calls against the REST backend. Every call passes
// through the authorizing round tripper, so the session token is attached
// when, and only when, one is present at send time.
type APIClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	log        logging.Logger
}

var _ APICaller = (*APIClient)(nil)

// NewAPIClient creates an APIClient. tokens supplies the current token,
// onRejected is told about 401 answers to authorized calls and base is the
// underlying transport (http.DefaultTransport if nil).
func NewAPIClient(
	cfg APIClientConfig,
	tokens TokenSource,
	onRejected RejectionHandler,
	base http.RoundTripper,
) (*APIClient, error) {
	baseURL, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	log := logging.GetLogger("infra.transport.http.api_client").With(
		logging.Group("api", "base_url", baseURL.Redacted()),
	)

	var transport http.RoundTripper = &LoggingRoundTripper{Base: base, Log: log}
	transport = &AuthorizingRoundTripper{Base: transport, Tokens: tokens, OnRejected: onRejected}
	transport = &TracingRoundTripper{Base: transport}

	return &APIClient{
		//nolint:exhaustruct
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		log:       log,
	}, nil
}

// URL resolves an API path against the base URL.
func (c *APIClient) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	u.RawQuery = ""

	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

// Do sends one JSON request. in, if not nil, is encoded as the body; a
// successful response is decoded into out when out is not nil. Failures are
// returned as the domain error classes.
func (c *APIClient) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := method + " " + path

	var body io.Reader

	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return ErrorFromResponse(op, resp.StatusCode, payload)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return &domain.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
