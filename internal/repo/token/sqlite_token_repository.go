package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

// ErrStorageBusy is returned when the database stayed locked past the busy timeout.
var ErrStorageBusy = errors.New("token storage busy")

// SQLiteTokenRepositoryConfig holds configuration for the SQLite token repository.
type SQLiteTokenRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/chroniclex.db"`
}

// SQLiteTokenRepository implements Repository on a SQLite key/value table.
type SQLiteTokenRepository struct {
	db        *sql.DB
	key       string
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteTokenRepository)(nil)

// SQLiteTokenRepositoryFactory creates a factory function that returns a new SQLiteTokenRepository.
func SQLiteTokenRepositoryFactory(key string, cfg SQLiteTokenRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewSQLiteTokenRepository(ctx, key, cfg)
	}
}

// NewSQLiteTokenRepository opens the database, creating its directory and
// schema if needed. Returns an error if the connection or initialization fails.
func NewSQLiteTokenRepository(
	ctx context.Context,
	key string,
	cfg SQLiteTokenRepositoryConfig,
) (*SQLiteTokenRepository, error) {
	log := logging.GetLogger("repo.token.sqlite_token_repository").With(
		logging.Group("db", "path", cfg.DatabasePath, "key", key),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.DebugContext(ctx, "token repository opened")

	return &SQLiteTokenRepository{
		db:        db,
		key:       key,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS local_storage (
			key        TEXT    PRIMARY KEY,
			value      TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Load implements Repository.Load using SQLite.
func (r *SQLiteTokenRepository) Load(ctx context.Context) (domain.AuthToken, bool, error) {
	var value string

	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM local_storage WHERE key = ?",
		r.key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("query token: %w", classify(err))
	}

	return domain.AuthToken(value), value != "", nil
}

// Store implements Repository.Store using SQLite.
func (r *SQLiteTokenRepository) Store(ctx context.Context, token domain.AuthToken) error {
	if token.IsZero() {
		return domain.ErrNoAuthToken
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		r.key,
		token.String(),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", classify(err))
	}

	return nil
}

// Delete implements Repository.Delete using SQLite.
func (r *SQLiteTokenRepository) Delete(ctx context.Context) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM local_storage WHERE key = ?", r.key); err != nil {
		return fmt.Errorf("delete token: %w", classify(err))
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteTokenRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func classify(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_BUSY:
			fallthrough
		case sqlite3.SQLITE_LOCKED:
			return errors.Join(ErrStorageBusy, err)
		default:
			break
		}
	}

	return err
}
