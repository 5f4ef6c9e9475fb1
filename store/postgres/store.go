// Package postgres provides the durable PrincipalStore used in production
// deployments. Recovery-code redemption relies on the version column:
// UpdateMFAMaterial only lands when the caller's snapshot is still current,
// so concurrent redemptions cannot double-spend a code and an unrelated
// write is never silently overwritten.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auditforge/identity"
)

const uniqueViolation = "23505"

// Store implements identity.PrincipalStore on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. The pool's lifecycle belongs to the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const principalColumns = `id, email, display_name, password_hash, active,
	mfa_enabled, coalesce(mfa_secret, ''), coalesce(mfa_recovery_codes, ''),
	coalesce(last_login_at, 'epoch'::timestamptz), version`

func scanPrincipal(row pgx.Row) (identity.Principal, error) {
	var p identity.Principal
	err := row.Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.PasswordHash, &p.Active,
		&p.MFAEnabled, &p.MFASecret, &p.RecoveryCodes,
		&p.LastLoginAt, &p.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Principal{}, identity.ErrPrincipalNotFound
		}
		return identity.Principal{}, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// GetByID implements identity.PrincipalStore.
func (s *Store) GetByID(ctx context.Context, id string) (identity.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE id = $1`
	return scanPrincipal(s.pool.QueryRow(ctx, query, id))
}

// GetByEmail implements identity.PrincipalStore.
func (s *Store) GetByEmail(ctx context.Context, email string) (identity.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE email = lower($1)`
	return scanPrincipal(s.pool.QueryRow(ctx, query, email))
}

// Create implements identity.PrincipalStore.
func (s *Store) Create(ctx context.Context, input identity.CreatePrincipalInput) (identity.Principal, error) {
	query := `
		INSERT INTO principals (email, display_name, password_hash, active, version)
		VALUES (lower($1), $2, $3, true, 1)
		RETURNING ` + principalColumns

	principal, err := scanPrincipal(s.pool.QueryRow(ctx, query, input.Email, input.DisplayName, input.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.Principal{}, identity.ErrDuplicateEmail
		}
		return identity.Principal{}, err
	}
	return principal, nil
}

// UpdatePasswordHash implements identity.PrincipalStore.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, newHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE principals SET password_hash = $2 WHERE id = $1`, id, newHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrPrincipalNotFound
	}
	return nil
}

// UpdateLastLogin implements identity.PrincipalStore.
func (s *Store) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE principals SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrPrincipalNotFound
	}
	return nil
}

// RolesFor implements identity.PrincipalStore.
func (s *Store) RolesFor(ctx context.Context, id string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.name
		FROM roles r
		JOIN principal_roles pr ON pr.role_id = r.id
		WHERE pr.principal_id = $1
		ORDER BY r.name`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

// UpdateMFAMaterial implements identity.PrincipalStore. The version guard
// turns a lost race into identity.ErrVersionConflict instead of a silent
// overwrite.
func (s *Store) UpdateMFAMaterial(ctx context.Context, id string, expectVersion int64, material identity.MFAMaterial) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE principals
		SET mfa_enabled = $3,
		    mfa_secret = nullif($4, ''),
		    mfa_recovery_codes = nullif($5, ''),
		    version = version + 1
		WHERE id = $1 AND version = $2`,
		id, expectVersion, material.Enabled, material.SecretCiphertext, material.RecoveryCiphertext)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// distinguish a missing row from a stale version
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM principals WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if !exists {
			return identity.ErrPrincipalNotFound
		}
		return identity.ErrVersionConflict
	}
	return nil
}
