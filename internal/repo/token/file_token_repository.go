package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// ErrNoFilePath is returned when the file repository is created without a path.
var ErrNoFilePath = errors.New("token file path is required")

// FileTokenRepositoryConfig holds configuration for the JSON file token repository.
type FileTokenRepositoryConfig struct {
	// FilePath is the JSON document holding the stored values
	FilePath string `env:"FILE_PATH" default:"var/storage/chroniclex.json"`
}

// FileTokenRepository implements Repository on a small JSON document shaped
// like browser local storage: one object mapping keys to string values.
// Other keys in the document are preserved.
type FileTokenRepository struct {
	path string
	key  string

	mu sync.Mutex
}

var _ Repository = (*FileTokenRepository)(nil)

// NewFileTokenRepository creates a FileTokenRepository. The file is created on
// the first Store.
func NewFileTokenRepository(key string, cfg FileTokenRepositoryConfig) (*FileTokenRepository, error) {
	path := strings.TrimSpace(cfg.FilePath)
	if path == "" {
		return nil, ErrNoFilePath
	}

	return &FileTokenRepository{path: path, key: key}, nil
}

// Load implements Repository.Load.
func (r *FileTokenRepository) Load(_ context.Context) (domain.AuthToken, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return "", false, err
	}

	value, ok := values[r.key]
	if !ok || value == "" {
		return "", false, nil
	}

	return domain.AuthToken(value), true, nil
}

// Store implements Repository.Store.
func (r *FileTokenRepository) Store(_ context.Context, token domain.AuthToken) error {
	if token.IsZero() {
		return domain.ErrNoAuthToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return err
	}

	values[r.key] = token.String()

	return r.write(values)
}

// Delete implements Repository.Delete.
func (r *FileTokenRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.read()
	if err != nil {
		return err
	}

	if _, ok := values[r.key]; !ok {
		return nil
	}

	delete(values, r.key)

	return r.write(values)
}

// Close implements Repository.Close.
func (r *FileTokenRepository) Close() error {
	return nil
}

func (r *FileTokenRepository) read() (map[string]string, error) {
	values := make(map[string]string)

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}

		return nil, fmt.Errorf("read token file: %w", err)
	}

	if len(b) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}

	return values, nil
}

func (r *FileTokenRepository) write(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("mkdir token dir: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}

	return nil
}
