package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrUnknownDriver is returned for an unsupported storage driver.
var ErrUnknownDriver = errors.New("unknown token storage driver")

// Repository is durable storage for the single auth token value.
type Repository interface {
	// Load returns the stored token and true, or "" and false if nothing is stored.
	Load(ctx context.Context) (domain.AuthToken, bool, error)

	// Store persists the token, replacing any stored value.
	// Returns domain.ErrNoAuthToken for an empty token.
	Store(ctx context.Context, token domain.AuthToken) error

	// Delete removes the stored token. Deleting an absent token is not an error.
	Delete(ctx context.Context) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// Config selects and configures the token storage.
type Config struct {
	// Driver is one of "sqlite", "file", "postgres" or "memory"
	Driver string `env:"DRIVER" default:"sqlite"`

	// Key is the name the token is stored under
	Key string `env:"NAMESPACE" default:"authToken"`

	// Secret enables sealing of the stored token when non-empty
	Secret string `env:"SECRET" default:""`

	SQLite   SQLiteTokenRepositoryConfig
	File     FileTokenRepositoryConfig
	Postgres PostgresTokenRepositoryConfig
}

// ConfiguredRepositoryFactory returns a factory for the configured driver,
// wrapped in a SealedRepository when a secret is set.
func ConfiguredRepositoryFactory(cfg Config) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		repo, err := newDriverRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}

		if cfg.Secret == "" {
			return repo, nil
		}

		sealed, err := NewSealedRepository(repo, cfg.Secret)
		if err != nil {
			_ = repo.Close()

			return nil, fmt.Errorf("new sealed repository: %w", err)
		}

		return sealed, nil
	}
}

func newDriverRepository(ctx context.Context, cfg Config) (Repository, error) {
	key := cfg.Key
	if key == "" {
		key = domain.AuthTokenKey
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverSQLite:
		return NewSQLiteTokenRepository(ctx, key, cfg.SQLite)
	case DriverFile:
		return NewFileTokenRepository(key, cfg.File)
	case DriverPostgres:
		return OpenPostgresTokenRepository(ctx, key, cfg.Postgres)
	case DriverMemory:
		return NewMemoryTokenRepository(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
