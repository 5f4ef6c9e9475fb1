package identity

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/auditforge/identity/token"
)

// Register creates a principal and issues its first token pair. The email
// must be unused and the password must satisfy the strength policy. A fresh
// account holds no roles yet, so the pair carries an empty role claim.
func (e *Engine) Register(ctx context.Context, email, pass, displayName string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	if err := e.policy.Validate(pass); err != nil {
		return nil, ErrWeakPassword
	}

	hash, err := e.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	principal, err := e.store.Create(ctx, CreatePrincipalInput{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	pair, err := e.issuePair(principal.ID, nil)
	if err != nil {
		return nil, err
	}

	e.log.Info("principal registered", zap.String("principal_id", principal.ID))
	return pair, nil
}

// issuePair mints an access/refresh token pair with the given role claims.
func (e *Engine) issuePair(principalID string, roles []string) (*TokenPair, error) {
	access, err := e.codec.Issue(principalID, token.TypeAccess, roles)
	if err != nil {
		return nil, err
	}
	refresh, err := e.codec.Issue(principalID, token.TypeRefresh, roles)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
