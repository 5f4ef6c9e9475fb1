package identity

import (
	"context"
	"time"
)

// Principal is the subset of a user account this core reads and writes.
// Invariant: MFASecret and RecoveryCodes ciphertext are both present exactly
// when MFA material has been provisioned; MFAEnabled flips true only after
// enrollment is confirmed with a live TOTP code.
type Principal struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Active       bool

	MFAEnabled bool
	// MFASecret is ciphertext produced by the secrets package, or "" when no
	// secret is provisioned.
	MFASecret string
	// RecoveryCodes is ciphertext of a JSON array of plaintext codes, or ""
	// when no set is provisioned.
	RecoveryCodes string

	LastLoginAt time.Time
	// Version guards read-modify-write sequences on MFA material. Every
	// versioned write bumps it; a stale writer gets ErrVersionConflict.
	Version int64
}

// CreatePrincipalInput is the payload for PrincipalStore.Create.
type CreatePrincipalInput struct {
	Email        string
	DisplayName  string
	PasswordHash string
}

// MFAMaterial is the persisted MFA field set written atomically by
// PrincipalStore.UpdateMFAMaterial.
type MFAMaterial struct {
	Enabled bool
	// SecretCiphertext and RecoveryCiphertext are opaque blobs from the
	// secrets package; "" clears the field.
	SecretCiphertext   string
	RecoveryCiphertext string
}

// PrincipalStore is the integration interface callers implement against
// their user database. Lookup misses return ErrPrincipalNotFound; Create
// returns ErrDuplicateEmail for a taken address; UpdateMFAMaterial returns
// ErrVersionConflict when expectVersion is stale.
type PrincipalStore interface {
	GetByID(ctx context.Context, id string) (Principal, error)
	GetByEmail(ctx context.Context, email string) (Principal, error)
	Create(ctx context.Context, input CreatePrincipalInput) (Principal, error)
	UpdatePasswordHash(ctx context.Context, id, newHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// RolesFor returns the principal's current role names in stable order.
	// Roles are recomputed at every issuance so they are never stale copies
	// of an older token.
	RolesFor(ctx context.Context, id string) ([]string, error)
	UpdateMFAMaterial(ctx context.Context, id string, expectVersion int64, material MFAMaterial) error
}

// TokenPair is an access/refresh token set issued after full authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by Engine.Login. Exactly one of the two shapes is
// populated: a token pair when MFA is disabled, or a challenge token with
// MFARequired set when verification must continue.
type LoginResult struct {
	AccessToken    string
	RefreshToken   string
	ChallengeToken string
	MFARequired    bool
}

// Enrollment is the one moment plaintext MFA material is returned to a
// caller: the base32 TOTP secret, its provisioning URI, and the fresh
// recovery-code batch. Everything persisted is ciphertext.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	RecoveryCodes   []string
}

// MFAStatus summarizes a principal's MFA state.
type MFAStatus struct {
	Enabled                bool
	RecoveryCodesRemaining int
}
