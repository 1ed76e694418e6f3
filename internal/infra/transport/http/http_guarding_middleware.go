package http

import (
	"net/http"

	"github.com/gorilla/mux"

	context_ "github.com/mkrupp/chroniclex/internal/infra/context"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	"github.com/mkrupp/chroniclex/internal/svc/guard"
	"github.com/mkrupp/chroniclex/internal/svc/session"
)

// RetryAfterPending is the Retry-After value sent while the session resolves.
const RetryAfterPending = "1"

// SessionSnapshotter yields a consistent view of the session.
type SessionSnapshotter interface {
	Snapshot() session.Snapshot
}

// RouteRequirements maps a route name to its protection requirement.
type RouteRequirements interface {
	Requirement(name string) guard.Requirement
}

// GuardingMiddleware creates middleware that gates every request on the
// route guard. It must run after mux has matched the route, whose name
// selects the requirement; unnamed or unmatched routes are public.
//
// The session is read once per request and the resulting viewer is added to
// the request context. Pending requests are answered by pending (503 with
// Retry-After), denied ones are redirected to the login page.
func GuardingMiddleware(
	next http.Handler,
	sessions SessionSnapshotter,
	routes RouteRequirements,
	pending http.Handler,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := sessions.Snapshot()
		r = r.WithContext(context_.WithViewer(r.Context(), snap.Viewer()))

		var name string
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		decision := guard.Decide(routes.Requirement(name), snap, r.URL.RequestURI())

		switch decision.Outcome {
		case guard.Pending:
			log.DebugContext(r.Context(), "session pending", "route", name)
			w.Header().Set("Retry-After", RetryAfterPending)

			if pending == nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)

				return
			}

			pending.ServeHTTP(w, r)
		case guard.Redirect:
			log.InfoContext(r.Context(), "login required", "route", name, "location", decision.Location)
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		case guard.Allow:
			next.ServeHTTP(w, r)
		}
	})
}

// GuardingMiddlewareFunc adapts GuardingMiddleware for mux.Router.Use.
func GuardingMiddlewareFunc(
	sessions SessionSnapshotter,
	routes RouteRequirements,
	pending http.Handler,
	log logging.Logger,
) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return GuardingMiddleware(next, sessions, routes, pending, log)
	}
}
