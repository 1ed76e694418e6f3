package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

var (
	// ErrNoDatabase is returned when the postgres repository is created without a database.
	ErrNoDatabase = errors.New("database is required")
	// ErrNoDSN is returned when the postgres driver is selected without a DSN.
	ErrNoDSN = errors.New("postgres dsn is required")
)

// PostgresTokenRepositoryConfig holds configuration for the PostgreSQL token repository.
type PostgresTokenRepositoryConfig struct {
	// DSN is the lib/pq connection string
	DSN string `env:"POSTGRES_DSN" default:""`
}

// PostgresTokenRepository implements Repository on a PostgreSQL key/value
// table, for consoles that share their storage.
type PostgresTokenRepository struct {
	db  *sql.DB
	key string
	log logging.Logger
}

var _ Repository = (*PostgresTokenRepository)(nil)

// OpenPostgresTokenRepository connects using the configured DSN.
func OpenPostgresTokenRepository(
	ctx context.Context,
	key string,
	cfg PostgresTokenRepositoryConfig,
) (*PostgresTokenRepository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrNoDSN
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	repo, err := NewPostgresTokenRepository(ctx, db, key)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return repo, nil
}

// NewPostgresTokenRepository wraps an open database and ensures the schema exists.
func NewPostgresTokenRepository(ctx context.Context, db *sql.DB, key string) (*PostgresTokenRepository, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}

	r := &PostgresTokenRepository{
		db:  db,
		key: key,
		log: logging.GetLogger("repo.token.postgres_token_repository").With(
			logging.Group("db", "key", key),
		),
	}

	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *PostgresTokenRepository) ensureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS chroniclex_local_storage (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure chroniclex_local_storage schema: %w", describe(err))
	}

	r.log.DebugContext(ctx, "schema ensured")

	return nil
}

// Load implements Repository.Load using PostgreSQL.
func (r *PostgresTokenRepository) Load(ctx context.Context) (domain.AuthToken, bool, error) {
	var value string

	const q = `SELECT value FROM chroniclex_local_storage WHERE key = $1`
	if err := r.db.QueryRowContext(ctx, q, r.key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("query token: %w", describe(err))
	}

	return domain.AuthToken(value), value != "", nil
}

// Store implements Repository.Store using PostgreSQL.
func (r *PostgresTokenRepository) Store(ctx context.Context, token domain.AuthToken) error {
	if token.IsZero() {
		return domain.ErrNoAuthToken
	}

	const q = `
INSERT INTO chroniclex_local_storage (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
	updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, q, r.key, token.String()); err != nil {
		return fmt.Errorf("upsert token: %w", describe(err))
	}

	return nil
}

// Delete implements Repository.Delete using PostgreSQL.
func (r *PostgresTokenRepository) Delete(ctx context.Context) error {
	const q = `DELETE FROM chroniclex_local_storage WHERE key = $1`
	if _, err := r.db.ExecContext(ctx, q, r.key); err != nil {
		return fmt.Errorf("delete token: %w", describe(err))
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *PostgresTokenRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// describe adds the SQLSTATE name to server errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", pqErr.Code.Name(), err)
	}

	return err
}
