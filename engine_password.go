package identity

import (
	"context"

	"go.uber.org/zap"
)

// ChangePassword re-hashes and persists a new credential after verifying the
// current one. The new password is checked against the strength policy; no
// state changes on any failure.
func (e *Engine) ChangePassword(ctx context.Context, principalID, current, next string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !principal.Active {
		return ErrAccountDeactivated
	}

	ok, err := e.hasher.Verify(current, principal.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	if err := e.policy.Validate(next); err != nil {
		return ErrWeakPassword
	}

	hash, err := e.hasher.Hash(next)
	if err != nil {
		return err
	}

	if err := e.store.UpdatePasswordHash(ctx, principal.ID, hash); err != nil {
		return err
	}

	e.log.Info("password changed", zap.String("principal_id", principal.ID))
	return nil
}
