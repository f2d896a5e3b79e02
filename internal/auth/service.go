package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every raw API key.
const KeyPrefix = "hdls_"

// lookupPrefixLen is the number of leading key characters stored in clear for lookup.
const lookupPrefixLen = 8

// ErrInvalidKey is returned when the provided API key does not match any active user.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// Service provides authentication operations.
type Service struct {
	users      UserRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(users UserRepository, bcryptCost int) *Service {
	return &Service{users: users, bcryptCost: bcryptCost}
}

// GenerateKey creates a new API key. Returns the raw key, its lookup prefix
// and the bcrypt hash. The raw key is 32 random bytes, base64url encoded,
// behind KeyPrefix.
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = KeyPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:lookupPrefixLen]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Authenticate resolves a raw API key to an Identity. The stored prefix
// narrows the candidates; each one is then bcrypt-compared.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < lookupPrefixLen {
		return nil, ErrInvalidKey
	}

	candidates, err := s.users.ActiveByKeyPrefix(ctx, rawKey[:lookupPrefixLen])
	if err != nil {
		return nil, fmt.Errorf("finding users by key prefix: %w", err)
	}

	for i := range candidates {
		u := &candidates[i]
		if !u.Active() {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.KeyHash), []byte(rawKey)) == nil {
			return u.Identity(), nil
		}
	}

	return nil, ErrInvalidKey
}

// CreateUser issues a new API key for a user of the given tenant and stores
// the user. The raw key is returned once and never persisted. An unknown
// tenant fails with tenant.ErrTenantNotFound.
func (s *Service) CreateUser(ctx context.Context, name string, tenantID uuid.UUID) (*User, string, error) {
	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return nil, "", err
	}

	u := &User{
		Name:      name,
		Tenant:    &TenantRef{ID: tenantID},
		KeyPrefix: prefix,
		KeyHash:   hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	return u, rawKey, nil
}

// BootstrapSuperuser creates the initial superuser when no user exists yet.
// Returns the raw API key (only displayed once), or "" when users already exist.
func (s *Service) BootstrapSuperuser(ctx context.Context) (string, error) {
	found, err := s.users.HasAny(ctx)
	if err != nil {
		return "", err
	}
	if found {
		return "", nil
	}

	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating superuser key: %w", err)
	}

	user := &User{
		Name:        "superuser",
		IsSuperuser: true,
		KeyPrefix:   prefix,
		KeyHash:     hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", fmt.Errorf("creating superuser: %w", err)
	}

	slog.Info("Superuser API key created", "key", rawKey)

	return rawKey, nil
}
