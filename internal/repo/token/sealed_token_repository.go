package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/mkrupp/chroniclex/internal/domain"
)

const (
	sealPrefix = "sealed:v1:"
	sealInfo   = "chroniclex token seal v1"
	nonceSize  = 24
	keySize    = 32
)

var (
	// ErrNoSecret is returned when sealing is requested without a secret.
	ErrNoSecret = errors.New("seal secret is required")
	// ErrTokenSealBroken is returned when a stored value cannot be opened with the configured secret.
	ErrTokenSealBroken = errors.New("stored token seal broken")
)

// SealedRepository encrypts the token before handing it to the wrapped
// repository, so the stored value is useless without the secret.
type SealedRepository struct {
	inner Repository
	key   [keySize]byte
}

var _ Repository = (*SealedRepository)(nil)

// NewSealedRepository derives the sealing key from secret with HKDF-SHA256.
func NewSealedRepository(inner Repository, secret string) (*SealedRepository, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	r := &SealedRepository{inner: inner}

	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo))
	if _, err := io.ReadFull(kdf, r.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	return r, nil
}

// Load implements Repository.Load. A value that cannot be opened is reported
// as not found together with ErrTokenSealBroken.
func (r *SealedRepository) Load(ctx context.Context) (domain.AuthToken, bool, error) {
	stored, ok, err := r.inner.Load(ctx)
	if err != nil || !ok {
		return "", false, err
	}

	token, err := r.open(stored.String())
	if err != nil {
		return "", false, errors.Join(ErrTokenSealBroken, domain.ErrInvalidAuthToken, err)
	}

	return token, true, nil
}

// Store implements Repository.Store.
func (r *SealedRepository) Store(ctx context.Context, token domain.AuthToken) error {
	if token.IsZero() {
		return domain.ErrNoAuthToken
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("read nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &r.key)

	//nolint:wrapcheck
	return r.inner.Store(ctx, domain.AuthToken(sealPrefix+base64.RawURLEncoding.EncodeToString(sealed)))
}

// Delete implements Repository.Delete.
func (r *SealedRepository) Delete(ctx context.Context) error {
	//nolint:wrapcheck
	return r.inner.Delete(ctx)
}

// Close implements Repository.Close.
func (r *SealedRepository) Close() error {
	//nolint:wrapcheck
	return r.inner.Close()
}

func (r *SealedRepository) open(value string) (domain.AuthToken, error) {
	encoded, ok := strings.CutPrefix(value, sealPrefix)
	if !ok {
		return "", errors.New("missing seal prefix")
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	if len(data) < nonceSize+secretbox.Overhead {
		return "", errors.New("sealed value too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])

	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &r.key)
	if !ok {
		return "", errors.New("open: authentication failed")
	}

	return domain.AuthToken(plain), nil
}
