package websvc

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/svc/guard"
)

const (
	modeLogin  = "login"
	modeSignup = "signup"

	minPasswordLength = 8

	msgBlankCredentials = "Username/Email and password cannot be empty."
	msgShortPassword    = "Password must be at least 8 characters long."
	msgSignedUp         = "Signup successful! Please login."
	msgLoggedOut        = "You have been logged out."
	msgLoginFailed      = "Failed to login. Please check your credentials."
)

type authData struct {
	Signup     bool
	Next       string
	Identifier string
	Username   string
	Email      string
}

// HandleAuth serves the login and signup forms. The mode query parameter
// selects the form; next is where a successful login continues.
func (ht *HTTPTransport) HandleAuth(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	data := authData{
		Signup: query.Get("mode") == modeSignup,
		Next:   guard.SafeNext(query.Get(guard.NextParam)),
	}

	title := "Sign In"
	if data.Signup {
		title = "Sign Up"
	}

	switch {
	case r.Method != http.MethodPost:
		ht.render(w, r, http.StatusOK, pageAuth, page{Title: title, Data: data})
	case data.Signup:
		ht.signup(w, r, data)
	default:
		ht.login(w, r, data)
	}
}

func (ht *HTTPTransport) login(w http.ResponseWriter, r *http.Request, data authData) {
	ctx := r.Context()

	data.Identifier = r.PostFormValue("identifier")
	password := r.PostFormValue("password")

	if strings.TrimSpace(data.Identifier) == "" || strings.TrimSpace(password) == "" {
		ht.render(w, r, http.StatusUnprocessableEntity, pageAuth, page{Title: "Sign In", Error: msgBlankCredentials, Data: data})

		return
	}

	resp, err := ht.auth.Login(ctx, domain.LoginRequest{Identifier: data.Identifier, Password: password})
	if err != nil {
		ht.render(w, r, errorStatus(err), pageAuth, page{
			Title: "Sign In",
			Error: domain.DisplayMessage(err, msgLoginFailed),
			Data:  data,
		})

		return
	}

	if err := ht.sessions.Login(ctx, resp.User(), domain.AuthToken(resp.Token)); err != nil {
		// signed in for this process only
		ht.log.WarnContext(ctx, "session not persisted", "error", err)
	}

	http.Redirect(w, r, data.Next, http.StatusSeeOther)
}

func (ht *HTTPTransport) signup(w http.ResponseWriter, r *http.Request, data authData) {
	ctx := r.Context()

	data.Username = r.PostFormValue("username")
	data.Email = r.PostFormValue("email")
	password := r.PostFormValue("password")

	if utf8.RuneCountInString(password) < minPasswordLength {
		ht.render(w, r, http.StatusUnprocessableEntity, pageAuth, page{Title: "Sign Up", Error: msgShortPassword, Data: data})

		return
	}

	_, err := ht.auth.Signup(ctx, domain.SignupRequest{Username: data.Username, Email: data.Email, Password: password})
	if err != nil {
		ht.render(w, r, errorStatus(err), pageAuth, page{
			Title: "Sign Up",
			Error: domain.SignupMessage(err),
			Data:  data,
		})

		return
	}

	location, err := ht.url(RouteAuth)
	if err != nil {
		location = guard.LoginPath
	}

	ht.flashes.add(w, r, msgSignedUp)
	http.Redirect(w, r, location+"?"+url.Values{"mode": {modeLogin}, guard.NextParam: {data.Next}}.Encode(), http.StatusSeeOther)
}

// HandleLogout ends the session. The backend is told first, while the
// token is still attached; its failure is logged and otherwise ignored, so
// the session is always cleared.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if viewer(r).Authenticated {
		if err := ht.auth.Logout(ctx); err != nil {
			ht.log.WarnContext(ctx, "backend logout failed, clearing session anyway", "error", err)
		}
	}

	ht.sessions.Logout(ctx)

	ht.flashes.add(w, r, msgLoggedOut)
	ht.redirect(w, r, RouteBlogList)
}
