package guard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mkrupp/chroniclex/internal/svc/session"
)

const (
	// LoginPath is the anonymous entry point protected routes redirect to.
	LoginPath = "/auth"
	// NextParam carries the intended destination through the login page.
	NextParam = "next"
)

// ErrUnknownRequirement is returned for a protection requirement other than public or auth.
var ErrUnknownRequirement = errors.New("unknown route requirement")

// Requirement is the protection level of a route.
type Requirement string

const (
	Public       Requirement = "public"
	RequiresAuth Requirement = "auth"
)

// ParseRequirement parses a requirement as written in the route table.
func ParseRequirement(s string) (Requirement, error) {
	switch req := Requirement(strings.ToLower(strings.TrimSpace(s))); req {
	case Public, RequiresAuth:
		return req, nil
	case "":
		return Public, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRequirement, s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Requirement) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	req, err := ParseRequirement(s)
	if err != nil {
		return err
	}

	*r = req

	return nil
}

// Outcome is what navigation to a route results in.
type Outcome int

const (
	Allow Outcome = iota
	Pending
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is the guard's verdict for one navigation. Location is only set
// for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide gates navigation to target. Public routes are always allowed. A
// protected route waits while the persisted session is still being resolved,
// and otherwise either allows an authenticated session or redirects to the
// login page carrying target. Anything not public is treated as protected.
func Decide(req Requirement, snap session.Snapshot, target string) Decision {
	switch {
	case req == Public:
		return Decision{Outcome: Allow}
	case snap.Loading():
		return Decision{Outcome: Pending}
	case snap.IsAuthenticated():
		return Decision{Outcome: Allow}
	default:
		return Decision{Outcome: Redirect, Location: LoginLocation(target)}
	}
}

// LoginLocation is the login page URL that resumes at target afterwards.
func LoginLocation(target string) string {
	if target == "" {
		return LoginPath
	}

	return LoginPath + "?" + url.Values{NextParam: {target}}.Encode()
}

// SafeNext returns next if it is a local absolute path and "/" otherwise,
// so the login page cannot be used to redirect off-site.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)

	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}

	return u.RequestURI()
}
