package websvc

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

const (
	flashSessionName = "chroniclex_flash"
	flashMaxAge      = 300
	flashKeyLength   = 32
)

// flashes carries one-shot messages across a redirect in a signed cookie.
// The cookie never holds session credentials.
type flashes struct {
	store *sessions.CookieStore
	log   logging.Logger
}

func newFlashes(key string, log logging.Logger) *flashes {
	secret := []byte(key)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(flashKeyLength)
	}

	store := sessions.NewCookieStore(secret)
	//nolint:exhaustruct
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &flashes{store: store, log: log}
}

// add queues msg for the next page rendered for this browser.
func (f *flashes) add(w http.ResponseWriter, r *http.Request, msg string) {
	// a cookie that no longer decodes yields a fresh session, which is fine
	sess, _ := f.store.Get(r, flashSessionName)
	sess.AddFlash(msg)

	if err := sess.Save(r, w); err != nil {
		f.log.WarnContext(r.Context(), "save flash failed", "error", err)
	}
}

// take returns and clears the queued messages. It must run before the
// response header is written.
func (f *flashes) take(w http.ResponseWriter, r *http.Request) []string {
	sess, _ := f.store.Get(r, flashSessionName)

	queued := sess.Flashes()
	if len(queued) == 0 {
		return nil
	}

	if err := sess.Save(r, w); err != nil {
		f.log.WarnContext(r.Context(), "clear flashes failed", "error", err)
	}

	out := make([]string, 0, len(queued))

	for _, v := range queued {
		if msg, ok := v.(string); ok {
			out = append(out, msg)
		}
	}

	return out
}
