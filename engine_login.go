package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/auditforge/identity/mfa"
	"github.com/auditforge/identity/token"
)

// Login verifies an email/password pair. With MFA disabled it returns a full
// token pair; with MFA enabled it returns only a short-lived challenge token
// and the caller must continue through VerifyMFALogin. Unknown email and
// wrong password are indistinguishable in the result.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))

	if err := e.limiter.Check(ctx, email); err != nil {
		e.metricInc(MetricLoginRateLimited)
		return nil, err
	}

	principal, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		e.failLogin(ctx, email, "unknown email")
		return nil, ErrInvalidCredentials
	}
	if !principal.Active {
		e.metricInc(MetricLoginFailure)
		return nil, ErrAccountDeactivated
	}

	ok, err := e.hasher.Verify(pass, principal.PasswordHash)
	if err != nil || !ok {
		e.failLogin(ctx, email, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	e.limiter.Reset(ctx, email)

	if principal.MFAEnabled {
		challenge, err := e.codec.Issue(principal.ID, token.TypeChallenge, nil)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricMFAChallengeIssued)
		e.log.Debug("mfa challenge issued", zap.String("principal_id", principal.ID))
		return &LoginResult{ChallengeToken: challenge, MFARequired: true}, nil
	}

	return e.completeLogin(ctx, principal)
}

// VerifyMFALogin finishes an MFA-pending login. code is either a 6-digit
// TOTP value or an 8-digit recovery code; a redeemed recovery code is
// removed from the principal's set before the token pair is issued. The
// challenge token is single-use: its jti is revoked on success.
func (e *Engine) VerifyMFALogin(ctx context.Context, challengeToken, code string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Parse(challengeToken)
	if err != nil {
		e.metricInc(MetricMFAVerifyFailure)
		return nil, ErrInvalidChallenge
	}
	if claims.TokenType != token.TypeChallenge {
		e.metricInc(MetricMFAVerifyFailure)
		return nil, ErrInvalidChallenge
	}
	if e.revocations.IsRevoked(claims.ID) {
		e.metricInc(MetricMFAVerifyFailure)
		return nil, ErrInvalidChallenge
	}

	principal, err := e.store.GetByID(ctx, claims.Subject)
	if err != nil {
		e.metricInc(MetricMFAVerifyFailure)
		return nil, ErrInvalidCredentials
	}
	if !principal.Active {
		e.metricInc(MetricMFAVerifyFailure)
		return nil, ErrAccountDeactivated
	}
	if !principal.MFAEnabled {
		e.metricInc(MetricMFAVerifyFailure)
		return nil, ErrMFANotEnabled
	}

	if mfa.IsRecoveryCodeShaped(code) {
		if err := e.redeemRecoveryCode(ctx, principal, code); err != nil {
			e.metricInc(MetricMFAVerifyFailure)
			return nil, err
		}
		e.metricInc(MetricRecoveryCodeUsed)
	} else {
		secret, err := e.cipher.Decrypt(principal.MFASecret)
		if err != nil {
			e.metricInc(MetricMFAVerifyFailure)
			e.log.Error("stored mfa secret unreadable",
				zap.String("principal_id", principal.ID), zap.Error(err))
			return nil, ErrInvalidMFACode
		}
		if !mfa.ValidateCode(secret, code) {
			e.metricInc(MetricMFAVerifyFailure)
			return nil, ErrInvalidMFACode
		}
	}

	// challenge is spent; reject replays until its natural expiry
	e.revocations.Revoke(claims.ID, claims.ExpiresAt.Time)
	e.metricInc(MetricMFAVerifySuccess)

	return e.completeLogin(ctx, principal)
}

// redeemRecoveryCode removes code from the principal's encrypted set and
// persists the reduced set under an optimistic version check, retrying a
// bounded number of times so a concurrent redemption cannot double-spend and
// an unrelated write is not lost.
func (e *Engine) redeemRecoveryCode(ctx context.Context, principal Principal, code string) error {
	const maxAttempts = 3

	for attempt := 0; ; attempt++ {
		if principal.RecoveryCodes == "" {
			return ErrInvalidRecoveryCode
		}

		encoded, err := e.cipher.Decrypt(principal.RecoveryCodes)
		if err != nil {
			e.log.Error("stored recovery codes unreadable",
				zap.String("principal_id", principal.ID), zap.Error(err))
			return ErrInvalidRecoveryCode
		}
		set, err := mfa.DecodeRecoverySet(encoded)
		if err != nil {
			e.log.Error("stored recovery codes unreadable",
				zap.String("principal_id", principal.ID), zap.Error(err))
			return ErrInvalidRecoveryCode
		}

		remaining, ok := mfa.Redeem(set, code)
		if !ok {
			return ErrInvalidRecoveryCode
		}

		reduced, err := mfa.EncodeRecoverySet(remaining)
		if err != nil {
			return err
		}
		ciphertext, err := e.cipher.Encrypt(reduced)
		if err != nil {
			return err
		}

		err = e.store.UpdateMFAMaterial(ctx, principal.ID, principal.Version, MFAMaterial{
			Enabled:            true,
			SecretCiphertext:   principal.MFASecret,
			RecoveryCiphertext: ciphertext,
		})
		if err == nil {
			e.log.Info("recovery code redeemed",
				zap.String("principal_id", principal.ID),
				zap.Int("codes_remaining", len(remaining)))
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt+1 >= maxAttempts {
			return err
		}

		// lost the race; reload and re-check the code against the fresh set
		principal, err = e.store.GetByID(ctx, principal.ID)
		if err != nil {
			return ErrInvalidCredentials
		}
	}
}

// completeLogin collects the principal's current roles, issues the pair, and
// records the login time.
func (e *Engine) completeLogin(ctx context.Context, principal Principal) (*LoginResult, error) {
	roles, err := e.store.RolesFor(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	pair, err := e.issuePair(principal.ID, roles)
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdateLastLogin(ctx, principal.ID, time.Now()); err != nil {
		e.log.Warn("last-login update failed", zap.String("principal_id", principal.ID), zap.Error(err))
	}

	e.metricInc(MetricLoginSuccess)
	e.log.Info("login completed", zap.String("principal_id", principal.ID))
	return &LoginResult{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (e *Engine) failLogin(ctx context.Context, email, reason string) {
	e.limiter.RecordFailure(ctx, email)
	e.metricInc(MetricLoginFailure)
	e.log.Debug("login rejected", zap.String("reason", reason))
}
