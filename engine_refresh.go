package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/auditforge/identity/token"
)

// Refresh rotates a refresh token into a fresh access/refresh pair. Roles
// are recomputed from the store, never copied from the old token, so role
// changes take effect on the next refresh. The old refresh jti is revoked
// before the new pair is issued; a rotation that loses that race fails
// with ErrTokenRevoked.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Parse(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != token.TypeRefresh {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrTokenWrongType
	}
	if e.revocations.IsRevoked(claims.ID) {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrTokenRevoked
	}

	principal, err := e.store.GetByID(ctx, claims.Subject)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrInvalidCredentials
	}
	if !principal.Active {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrAccountDeactivated
	}

	roles, err := e.store.RolesFor(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	// the old jti is burned before the new pair exists, so exactly one
	// concurrent rotation of the same token can win
	if !e.revocations.TryRevoke(claims.ID, claims.ExpiresAt.Time) {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrTokenRevoked
	}
	e.metricInc(MetricTokenRevoked)

	pair, err := e.issuePair(principal.ID, roles)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.log.Debug("refresh rotated", zap.String("principal_id", principal.ID))
	return pair, nil
}
