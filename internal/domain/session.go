package domain

// SessionState is a state of the client session lifecycle.
type SessionState int

const (
	// SessionUninitialized is the state before the persisted token was looked up.
	SessionUninitialized SessionState = iota
	// SessionLoading is the state while the persisted token is looked up.
	SessionLoading
	// SessionAnonymous is the state without a token.
	SessionAnonymous
	// SessionAuthenticated is the state with a token.
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionUninitialized:
		return "uninitialized"
	case SessionLoading:
		return "loading"
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Resolved reports whether the persisted session has been looked up.
func (s SessionState) Resolved() bool {
	return s == SessionAnonymous || s == SessionAuthenticated
}

// Viewer is the part of the session a page may render: whether someone is
// signed in and, when known, who. It never carries the token.
type Viewer struct {
	State         SessionState
	Authenticated bool
	User          *User
}

// Name returns the display name of the signed-in user.
func (v Viewer) Name() string {
	return v.User.DisplayName()
}
