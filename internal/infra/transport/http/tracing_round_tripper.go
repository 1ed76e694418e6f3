package http

import (
	"net/http"

	context_ "github.com/mkrupp/chroniclex/internal/infra/context"
)

// TracingRoundTripper forwards the trace ID of the request context in the
// X-Request-ID header, generating one when the context has none.
type TracingRoundTripper struct {
	Base http.RoundTripper
}

var _ http.RoundTripper = (*TracingRoundTripper)(nil)

// RoundTrip implements http.RoundTripper.
func (rt *TracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(TraceIDHeader) != "" {
		return rt.roundTrip(req)
	}

	_, traceID := context_.EnsureTraceID(req.Context())
	if traceID == "" {
		return rt.roundTrip(req)
	}

	out := req.Clone(req.Context())
	out.Header.Set(TraceIDHeader, traceID)

	return rt.roundTrip(out)
}

func (rt *TracingRoundTripper) roundTrip(req *http.Request) (*http.Response, error) {
	//nolint:wrapcheck
	return base(rt.Base).RoundTrip(req)
}
