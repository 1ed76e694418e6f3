package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := logging.NewRedactingHandler(slog.NewJSONHandler(&buf, nil), logging.DefaultRedactedKeys...)
	log := slog.New(handler).With("Authorization", "Token tok123")

	log.InfoContext(context.Background(), "login",
		"token", "tok123",
		slog.Group("user", "username", "alice", "password", "hunter22"),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}

	if got := record["token"]; got != logging.RedactedValue {
		t.Errorf("token = %v, want %v", got, logging.RedactedValue)
	}
	if got := record["Authorization"]; got != logging.RedactedValue {
		t.Errorf("Authorization = %v, want %v", got, logging.RedactedValue)
	}

	user, ok := record["user"].(map[string]any)
	if !ok {
		t.Fatalf("user group missing: %v", record)
	}
	if got := user["password"]; got != logging.RedactedValue {
		t.Errorf("user.password = %v, want %v", got, logging.RedactedValue)
	}
	if got := user["username"]; got != "alice" {
		t.Errorf("user.username = %v, want alice", got)
	}
	if bytes.Contains(buf.Bytes(), []byte("tok123")) {
		t.Errorf("token leaked: %s", buf.String())
	}
}

func TestConsoleHandler_PkgLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := &logging.ConsoleHandler{
		Output: &buf,
		Level:  slog.LevelDebug,
		PkgLevels: map[string]slog.Level{
			"svc":         slog.LevelWarn,
			"svc.session": slog.LevelDebug,
		},
	}

	ctx := context.Background()

	slog.New(handler).With(logging.LoggerKey, "svc.guard").InfoContext(ctx, "suppressed")
	slog.New(handler).With(logging.LoggerKey, "svc.session.store").DebugContext(ctx, "kept")
	slog.New(handler).With(logging.LoggerKey, "infra.http").DebugContext(ctx, "unfiltered")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("suppressed")) {
		t.Errorf("svc.guard info not filtered: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte("kept")) {
		t.Errorf("svc.session debug filtered: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte("unfiltered")) {
		t.Errorf("infra.http debug filtered: %s", out)
	}
}
