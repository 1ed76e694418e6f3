package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	"github.com/mkrupp/chroniclex/internal/repo/token"
)

// ErrAlreadyInitialized is returned by every Initialize call after the first.
var ErrAlreadyInitialized = errors.New("session already initialized")

// Snapshot is a consistent, token-free view of the session at one instant.
type Snapshot struct {
	State domain.SessionState
	User  *domain.User
}

// IsAuthenticated reports whether the snapshot was taken with a token present.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == domain.SessionAuthenticated
}

// Loading reports whether the persisted session was still being looked up.
func (s Snapshot) Loading() bool {
	return !s.State.Resolved()
}

// Viewer converts the snapshot into what a page may render.
func (s Snapshot) Viewer() domain.Viewer {
	return domain.Viewer{
		State:         s.State,
		Authenticated: s.IsAuthenticated(),
		User:          s.User,
	}
}

// Store owns the client session: the current token, the identity of the
// signed-in user and the persisted copy of the token. It is the only writer
// of the token repository.
//
// The state moves Uninitialized -> Loading -> {Anonymous, Authenticated} on
// Initialize, and between Anonymous and Authenticated on Login, Logout and
// Expire. Concurrent mutations are serialized; the last one wins.
type Store struct {
	repo token.Repository
	log  logging.Logger

	mu    sync.RWMutex
	state domain.SessionState
	token domain.AuthToken
	user  *domain.User

	initOnce sync.Once
	done     chan struct{}
}

// NewStore creates an uninitialized Store persisting to repo.
func NewStore(repo token.Repository) *Store {
	return &Store{
		repo:  repo,
		log:   logging.GetLogger("svc.session.store"),
		state: domain.SessionUninitialized,
		done:  make(chan struct{}),
	}
}

// Initialize makes the single attempt to restore a persisted token. A found
// token is trusted without asking the backend. Loading ends after the
// attempt whatever its outcome; a failed read leaves the session anonymous
// and is returned. Later calls return ErrAlreadyInitialized.
func (s *Store) Initialize(ctx context.Context) (err error) {
	err = ErrAlreadyInitialized

	s.initOnce.Do(func() {
		err = s.initialize(ctx)
	})

	return err
}

func (s *Store) initialize(ctx context.Context) (err error) {
	log := s.log

	s.mu.Lock()
	if s.state == domain.SessionUninitialized {
		s.state = domain.SessionLoading
	}
	s.mu.Unlock()

	defer func() {
		close(s.done)

		if err != nil {
			log.ErrorContext(ctx, "restore session failed", "error", err)
		} else {
			log.DebugContext(ctx, "session restored", "state", s.State().String())
		}
	}()

	stored, found, loadErr := s.repo.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	// a login or logout during loading already decided the state
	if s.state != domain.SessionLoading {
		return nil
	}

	if loadErr != nil || !found || stored.IsZero() {
		s.state = domain.SessionAnonymous
	} else {
		s.token = stored
		s.state = domain.SessionAuthenticated
	}

	if loadErr != nil {
		return fmt.Errorf("load token: %w", loadErr)
	}

	return nil
}

// Done returns a channel closed once the initial lookup has finished.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Login records the signed-in user and token and persists the token. Any
// previous session is replaced without being revoked. The in-memory session
// is authenticated even if persisting fails; the persistence error is returned.
func (s *Store) Login(ctx context.Context, user domain.User, tok domain.AuthToken) (err error) {
	if tok.IsZero() {
		return domain.ErrNoAuthToken
	}

	log := s.log.With(logging.Group("user", "id", user.ID.String(), "username", user.Username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login not persisted", "error", err)
		} else {
			log.DebugContext(ctx, "logged in")
		}
	}()

	s.mu.Lock()
	s.user = &user
	s.token = tok
	s.state = domain.SessionAuthenticated
	s.mu.Unlock()

	if err := s.repo.Store(ctx, tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	return nil
}

// Logout clears the session and the persisted token. It cannot fail: a
// storage error is logged and the in-memory session is anonymous regardless.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		s.log.ErrorContext(ctx, "delete persisted token failed", "error", err)
	}

	s.log.DebugContext(ctx, "logged out")
}

// Expire ends the session after the backend rejected tok. Nothing happens if
// tok is no longer the current token, so a rejection that arrives after a new
// login cannot undo it. Reports whether the session was cleared.
func (s *Store) Expire(ctx context.Context, tok domain.AuthToken) bool {
	s.mu.Lock()

	if tok.IsZero() || s.token != tok {
		s.mu.Unlock()

		return false
	}

	s.clearLocked()
	s.mu.Unlock()

	if err := s.repo.Delete(ctx); err != nil {
		s.log.ErrorContext(ctx, "delete rejected token failed", "error", err)
	}

	s.log.InfoContext(ctx, "session expired by backend")

	return true
}

func (s *Store) clearLocked() {
	s.user = nil
	s.token = ""
	s.state = domain.SessionAnonymous
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return !s.token.IsZero()
}

// Token returns the current token. Callers must read it anew for every
// request instead of keeping it.
func (s *Store) Token() domain.AuthToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// User returns a copy of the signed-in user, or nil if unknown.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyUser(s.user)
}

// State returns the current lifecycle state.
func (s *Store) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Snapshot returns state and user read under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{State: s.state, User: copyUser(s.user)}
}

func copyUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}

	u := *user

	return &u
}
