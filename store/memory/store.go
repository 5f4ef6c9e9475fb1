// Package memory provides an in-memory PrincipalStore for tests, examples,
// and single-process deployments. All operations are mutex-serialized, which
// trivially satisfies the engine's optimistic-concurrency contract.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auditforge/identity"
)

// Store implements identity.PrincipalStore backed by process memory.
type Store struct {
	mu      sync.Mutex
	byID    map[string]identity.Principal
	byEmail map[string]string
	roles   map[string][]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]identity.Principal),
		byEmail: make(map[string]string),
		roles:   make(map[string][]string),
	}
}

// GetByID implements identity.PrincipalStore.
func (s *Store) GetByID(_ context.Context, id string) (identity.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	principal, ok := s.byID[id]
	if !ok {
		return identity.Principal{}, identity.ErrPrincipalNotFound
	}
	return principal, nil
}

// GetByEmail implements identity.PrincipalStore.
func (s *Store) GetByEmail(_ context.Context, email string) (identity.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[normalize(email)]
	if !ok {
		return identity.Principal{}, identity.ErrPrincipalNotFound
	}
	return s.byID[id], nil
}

// Create implements identity.PrincipalStore.
func (s *Store) Create(_ context.Context, input identity.CreatePrincipalInput) (identity.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalize(input.Email)
	if _, taken := s.byEmail[email]; taken {
		return identity.Principal{}, identity.ErrDuplicateEmail
	}

	principal := identity.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  input.DisplayName,
		PasswordHash: input.PasswordHash,
		Active:       true,
		Version:      1,
	}
	s.byID[principal.ID] = principal
	s.byEmail[email] = principal.ID
	return principal, nil
}

// UpdatePasswordHash implements identity.PrincipalStore.
func (s *Store) UpdatePasswordHash(_ context.Context, id, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	principal, ok := s.byID[id]
	if !ok {
		return identity.ErrPrincipalNotFound
	}
	principal.PasswordHash = newHash
	s.byID[id] = principal
	return nil
}

// UpdateLastLogin implements identity.PrincipalStore.
func (s *Store) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	principal, ok := s.byID[id]
	if !ok {
		return identity.ErrPrincipalNotFound
	}
	principal.LastLoginAt = at
	s.byID[id] = principal
	return nil
}

// RolesFor implements identity.PrincipalStore.
func (s *Store) RolesFor(_ context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return nil, identity.ErrPrincipalNotFound
	}
	roles := s.roles[id]
	out := make([]string, len(roles))
	copy(out, roles)
	return out, nil
}

// UpdateMFAMaterial implements identity.PrincipalStore.
func (s *Store) UpdateMFAMaterial(_ context.Context, id string, expectVersion int64, material identity.MFAMaterial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	principal, ok := s.byID[id]
	if !ok {
		return identity.ErrPrincipalNotFound
	}
	if principal.Version != expectVersion {
		return identity.ErrVersionConflict
	}

	principal.MFAEnabled = material.Enabled
	principal.MFASecret = material.SecretCiphertext
	principal.RecoveryCodes = material.RecoveryCiphertext
	principal.Version++
	s.byID[id] = principal
	return nil
}

// SetRoles assigns the role names RolesFor reports for a principal.
func (s *Store) SetRoles(id string, roles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[id] = append([]string(nil), roles...)
}

// SetActive flips a principal's active flag.
func (s *Store) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	principal, ok := s.byID[id]
	if !ok {
		return
	}
	principal.Active = active
	s.byID[id] = principal
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
