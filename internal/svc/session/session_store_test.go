package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/repo/token"
	"github.com/mkrupp/chroniclex/internal/svc/session"
)

var ErrRepoError = errors.New("repository error")

// mockTokenRepository implements token.Repository for testing.
type mockTokenRepository struct {
	token.MemoryTokenRepository

	loadErr   error
	storeErr  error
	deleteErr error
	loads     int
	m         sync.Mutex
}

func (m *mockTokenRepository) Load(ctx context.Context) (domain.AuthToken, bool, error) {
	m.m.Lock()
	m.loads++
	m.m.Unlock()

	if m.loadErr != nil {
		return "", false, m.loadErr
	}

	return m.MemoryTokenRepository.Load(ctx)
}

func (m *mockTokenRepository) Store(ctx context.Context, tok domain.AuthToken) error {
	if m.storeErr != nil {
		return m.storeErr
	}

	return m.MemoryTokenRepository.Store(ctx, tok)
}

func (m *mockTokenRepository) Delete(ctx context.Context) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	return m.MemoryTokenRepository.Delete(ctx)
}

var alice = domain.User{ID: domain.UserIDFromInt(1), Username: "alice", Email: "alice@example.com"}

func TestStore_Initialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		persisted domain.AuthToken
		loadErr   error
		wantState domain.SessionState
		wantErr   error
	}{
		{
			name:      "no persisted token",
			wantState: domain.SessionAnonymous,
		},
		{
			name:      "persisted token restored optimistically",
			persisted: "tok123",
			wantState: domain.SessionAuthenticated,
		},
		{
			name:      "unreadable storage",
			loadErr:   ErrRepoError,
			wantState: domain.SessionAnonymous,
			wantErr:   ErrRepoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			repo := &mockTokenRepository{loadErr: tt.loadErr}

			if tt.persisted != "" {
				_ = repo.MemoryTokenRepository.Store(ctx, tt.persisted)
			}

			store := session.NewStore(repo)

			if got := store.State(); got != domain.SessionUninitialized {
				t.Fatalf("State() before Initialize = %v", got)
			}

			err := store.Initialize(ctx)
			if !errors.Is(err, tt.wantErr) || (err != nil) != (tt.wantErr != nil) {
				t.Errorf("Initialize() error = %v, want %v", err, tt.wantErr)
			}

			if got := store.State(); got != tt.wantState {
				t.Errorf("State() = %v, want %v", got, tt.wantState)
			}

			if got := store.Token(); got != tt.persisted {
				t.Errorf("Token() = %q, want %q", got, tt.persisted)
			}

			if store.User() != nil {
				t.Error("User() restored without login")
			}

			select {
			case <-store.Done():
			default:
				t.Error("Done() not closed after Initialize")
			}
		})
	}
}

func TestStore_InitializeOnlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &mockTokenRepository{}
	store := session.NewStore(repo)

	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	_ = repo.MemoryTokenRepository.Store(ctx, "late")

	if err := store.Initialize(ctx); !errors.Is(err, session.ErrAlreadyInitialized) {
		t.Errorf("second Initialize() error = %v, want %v", err, session.ErrAlreadyInitialized)
	}

	if repo.loads != 1 {
		t.Errorf("Load() called %d times, want 1", repo.loads)
	}

	if store.IsAuthenticated() {
		t.Error("second Initialize() changed the session")
	}
}

func TestStore_LoginLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &mockTokenRepository{}
	store := session.NewStore(repo)
	_ = store.Initialize(ctx)

	if err := store.Login(ctx, alice, ""); !errors.Is(err, domain.ErrNoAuthToken) {
		t.Fatalf("Login() with empty token error = %v", err)
	}

	if store.IsAuthenticated() {
		t.Fatal("empty token authenticated the session")
	}

	if err := store.Login(ctx, alice, "tok123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	snap := store.Snapshot()
	if !store.IsAuthenticated() || !snap.IsAuthenticated() || snap.State != domain.SessionAuthenticated {
		t.Fatalf("after Login state = %v", snap.State)
	}

	if snap.User == nil || snap.User.Username != "alice" {
		t.Errorf("Snapshot().User = %+v", snap.User)
	}

	if persisted, ok, _ := repo.MemoryTokenRepository.Load(ctx); !ok || persisted != "tok123" {
		t.Errorf("persisted token = %q, %v", persisted, ok)
	}

	// overwrite without logout
	bob := domain.User{ID: domain.UserIDFromInt(2), Username: "bob"}
	if err := store.Login(ctx, bob, "tok456"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if store.Token() != "tok456" || store.User().Username != "bob" {
		t.Errorf("second Login() not applied: %q %+v", store.Token(), store.User())
	}

	store.Logout(ctx)

	if store.IsAuthenticated() || store.State() != domain.SessionAnonymous || store.User() != nil {
		t.Errorf("after Logout state = %v, user = %+v", store.State(), store.User())
	}

	if _, ok, _ := repo.MemoryTokenRepository.Load(ctx); ok {
		t.Error("persisted token survived Logout")
	}
}

func TestStore_LoginPersistFailureKeepsSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(&mockTokenRepository{storeErr: ErrRepoError})
	_ = store.Initialize(ctx)

	if err := store.Login(ctx, alice, "tok123"); !errors.Is(err, ErrRepoError) {
		t.Errorf("Login() error = %v, want %v", err, ErrRepoError)
	}

	if !store.IsAuthenticated() {
		t.Error("session not authenticated after persistence failure")
	}
}

func TestStore_LogoutNeverFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(&mockTokenRepository{deleteErr: ErrRepoError})
	_ = store.Initialize(ctx)
	_ = store.Login(ctx, alice, "tok123")

	store.Logout(ctx)

	if store.IsAuthenticated() {
		t.Error("Logout() left the session authenticated")
	}
}

func TestStore_Expire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(&mockTokenRepository{})
	_ = store.Initialize(ctx)
	_ = store.Login(ctx, alice, "tok-new")

	if store.Expire(ctx, "tok-old") {
		t.Error("Expire() with a stale token cleared the session")
	}

	if !store.IsAuthenticated() {
		t.Fatal("stale rejection logged the user out")
	}

	if !store.Expire(ctx, "tok-new") {
		t.Error("Expire() with the current token did nothing")
	}

	if store.IsAuthenticated() || store.State() != domain.SessionAnonymous {
		t.Errorf("after Expire state = %v", store.State())
	}
}

func TestStore_LoginBeforeInitializeWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := &mockTokenRepository{}
	_ = repo.MemoryTokenRepository.Store(ctx, "tok-persisted")

	store := session.NewStore(repo)
	_ = store.Login(ctx, alice, "tok-fresh")

	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if got := store.Token(); got != "tok-fresh" {
		t.Errorf("Token() = %q, want tok-fresh", got)
	}
}

// Persisting a token and initializing a fresh store over the same storage
// restores the authenticated state without a new login.
func TestStore_RestoreAcrossProcesses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := token.SQLiteTokenRepositoryConfig{DatabasePath: filepath.Join(t.TempDir(), "chroniclex.db")}

	first, err := token.NewSQLiteTokenRepository(ctx, domain.AuthTokenKey, cfg)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}

	before := session.NewStore(first)
	_ = before.Initialize(ctx)

	if err := before.Login(ctx, alice, "tok123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_ = first.Close()

	second, err := token.NewSQLiteTokenRepository(ctx, domain.AuthTokenKey, cfg)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	after := session.NewStore(second)
	if err := after.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if !after.IsAuthenticated() || after.Token() != "tok123" {
		t.Errorf("restored session = %v, %q", after.State(), after.Token())
	}
}

func TestStore_ConcurrentMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(&mockTokenRepository{})
	_ = store.Initialize(ctx)

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if i%2 == 0 {
				_ = store.Login(ctx, alice, "tok123")
			} else {
				store.Logout(ctx)
			}

			_ = store.Snapshot()
		}()
	}

	wg.Wait()

	snap := store.Snapshot()
	if snap.IsAuthenticated() != store.IsAuthenticated() {
		t.Errorf("state %v disagrees with token presence", snap.State)
	}
}
