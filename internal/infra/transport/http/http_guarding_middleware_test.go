package http_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkrupp/chroniclex/internal/domain"
	context_ "github.com/mkrupp/chroniclex/internal/infra/context"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	http_ "github.com/mkrupp/chroniclex/internal/infra/transport/http"
	"github.com/mkrupp/chroniclex/internal/svc/guard"
	"github.com/mkrupp/chroniclex/internal/svc/session"
)

type fixedSnapshot session.Snapshot

func (s fixedSnapshot) Snapshot() session.Snapshot {
	return session.Snapshot(s)
}

func guardedRouter(t *testing.T, snap session.Snapshot) *mux.Router {
	t.Helper()

	table, err := guard.DefaultRouteTable()
	if err != nil {
		t.Fatal(err)
	}

	handlers := make(map[string]http.Handler)

	for _, route := range table.Routes {
		handlers[route.Name] = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, _ := context_.ViewerFromContext(r.Context())
			_, _ = w.Write([]byte(viewer.State.String()))
		})
	}

	pending := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	router := mux.NewRouter()
	router.Use(http_.GuardingMiddlewareFunc(fixedSnapshot(snap), table, pending, logging.NewNopLogger()))

	if err := table.Bind(router, handlers); err != nil {
		t.Fatal(err)
	}

	return router
}

func TestGuardingMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		state    domain.SessionState
		method   string
		path     string
		status   int
		location string
		body     string
	}{
		{"public anonymous", domain.SessionAnonymous, http.MethodGet, "/", http.StatusOK, "", "anonymous"},
		{"public loading", domain.SessionLoading, http.MethodGet, "/blogs/3", http.StatusOK, "", "loading"},
		{"protected loading", domain.SessionLoading, http.MethodGet, "/blogs/new", http.StatusServiceUnavailable, "", "loading"},
		{
			"protected anonymous", domain.SessionAnonymous, http.MethodGet, "/blogs/new",
			http.StatusSeeOther, "/auth?next=%2Fblogs%2Fnew", "",
		},
		{
			"protected anonymous post", domain.SessionAnonymous, http.MethodPost, "/blogs/3/delete",
			http.StatusSeeOther, "/auth?next=%2Fblogs%2F3%2Fdelete", "",
		},
		{"protected authenticated", domain.SessionAuthenticated, http.MethodGet, "/blogs/3/edit", http.StatusOK, "", "authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := guardedRouter(t, session.Snapshot{State: tt.state})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}

			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}

			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}

			if tt.status == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") != http_.RetryAfterPending {
				t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	served := make(chan error, 1)

	go func() {
		served <- http_.Serve(ctx, sock, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}), http_.HTTPTransportConfig{
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
		})
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if resp.Header.Get(http_.TraceIDHeader) == "" {
		t.Error("expected a trace id in the response")
	}

	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
