package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

// LoggingRoundTripper logs every outbound call: DEBUG before sending, and after
// the response at a level chosen from its status like LoggingMiddleware does.
// The Authorization header is never logged.
type LoggingRoundTripper struct {
	Base http.RoundTripper
	Log  logging.Logger
}

var _ http.RoundTripper = (*LoggingRoundTripper)(nil)

// RoundTrip implements http.RoundTripper.
func (rt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	rt.Log.DebugContext(ctx, "outbound request", slog.Group("http",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"authorized", req.Header.Get(AuthorizationHeader) != "",
	))

	resp, err := base(rt.Base).RoundTrip(req)
	if err != nil {
		rt.Log.ErrorContext(ctx, "outbound request failed", slog.Group("http",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"duration", time.Since(start),
		), "error", err)

		return nil, fmt.Errorf("round trip: %w", err)
	}

	var level logging.Level

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		level = logging.LevelError
	case resp.StatusCode >= http.StatusBadRequest:
		level = logging.LevelWarn
	default:
		level = logging.LevelDebug
	}

	rt.Log.Log(ctx, level, "outbound response", slog.Group("http",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	))

	return resp, nil
}
