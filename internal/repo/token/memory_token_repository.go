package token

import (
	"context"
	"sync"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// MemoryTokenRepository keeps the token for the lifetime of the process only.
type MemoryTokenRepository struct {
	mu    sync.RWMutex
	token domain.AuthToken
}

var _ Repository = (*MemoryTokenRepository)(nil)

// NewMemoryTokenRepository creates an empty MemoryTokenRepository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{}
}

// Load implements Repository.Load.
func (r *MemoryTokenRepository) Load(_ context.Context) (domain.AuthToken, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.token, r.token != "", nil
}

// Store implements Repository.Store.
func (r *MemoryTokenRepository) Store(_ context.Context, token domain.AuthToken) error {
	if token.IsZero() {
		return domain.ErrNoAuthToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = token

	return nil
}

// Delete implements Repository.Delete.
func (r *MemoryTokenRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = ""

	return nil
}

// Close implements Repository.Close.
func (r *MemoryTokenRepository) Close() error {
	return nil
}
