package http

import (
	"net/http"
	"net/url"

	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

// SameOriginMiddleware creates middleware that refuses state-changing
// requests sent by another site. Browsers mark those with Sec-Fetch-Site or
// an Origin naming a different host; requests without either header pass.
func SameOriginMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)

			return
		}

		if !sameOrigin(r) {
			log.WarnContext(r.Context(), "cross-site request refused",
				"origin", r.Header.Get("Origin"),
				"fetch_site", r.Header.Get("Sec-Fetch-Site"),
			)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func sameOrigin(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
	default:
		return false
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return u.Host == r.Host
}
