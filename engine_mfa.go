package identity

import (
	"context"

	"go.uber.org/zap"

	"github.com/auditforge/identity/mfa"
)

// BeginMFAEnrollment provisions a TOTP secret and a fresh recovery-code
// batch for a principal that re-verifies its password. Both are persisted
// encrypted with MFA still disabled; enrollment only becomes active through
// ConfirmMFAEnrollment. The returned Enrollment is the single moment the
// plaintext secret and codes leave the engine.
func (e *Engine) BeginMFAEnrollment(ctx context.Context, principalID, pass string) (*Enrollment, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if principal.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	if err := e.verifyPassword(pass, principal); err != nil {
		return nil, err
	}

	provision, err := mfa.GenerateSecret(e.config.MFA.Issuer, principal.Email)
	if err != nil {
		return nil, err
	}
	codes, err := mfa.NewRecoveryCodes()
	if err != nil {
		return nil, err
	}

	secretCT, err := e.cipher.Encrypt(provision.Secret)
	if err != nil {
		return nil, err
	}
	encoded, err := mfa.EncodeRecoverySet(codes)
	if err != nil {
		return nil, err
	}
	codesCT, err := e.cipher.Encrypt(encoded)
	if err != nil {
		return nil, err
	}

	err = e.store.UpdateMFAMaterial(ctx, principal.ID, principal.Version, MFAMaterial{
		Enabled:            false,
		SecretCiphertext:   secretCT,
		RecoveryCiphertext: codesCT,
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("mfa enrollment started", zap.String("principal_id", principal.ID))
	return &Enrollment{
		Secret:          provision.Secret,
		ProvisioningURI: provision.URI,
		RecoveryCodes:   codes,
	}, nil
}

// ConfirmMFAEnrollment activates MFA once the principal proves possession of
// the enrolled authenticator with a live TOTP code. A failed match leaves
// the pending material intact so the caller may retry.
func (e *Engine) ConfirmMFAEnrollment(ctx context.Context, principalID, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if principal.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if principal.MFASecret == "" {
		return ErrMFANotConfigured
	}

	secret, err := e.cipher.Decrypt(principal.MFASecret)
	if err != nil {
		e.metricInc(MetricMFAVerifyFailure)
		e.log.Error("stored mfa secret unreadable",
			zap.String("principal_id", principal.ID), zap.Error(err))
		return ErrInvalidMFACode
	}
	if !mfa.ValidateCode(secret, code) {
		e.metricInc(MetricMFAVerifyFailure)
		return ErrInvalidMFACode
	}

	err = e.store.UpdateMFAMaterial(ctx, principal.ID, principal.Version, MFAMaterial{
		Enabled:            true,
		SecretCiphertext:   principal.MFASecret,
		RecoveryCiphertext: principal.RecoveryCodes,
	})
	if err != nil {
		return err
	}

	e.metricInc(MetricMFAVerifySuccess)
	e.log.Info("mfa enabled", zap.String("principal_id", principal.ID))
	return nil
}

// DisableMFA clears the secret and recovery codes and flips MFA off after
// password re-verification.
func (e *Engine) DisableMFA(ctx context.Context, principalID, pass string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !principal.MFAEnabled {
		return ErrMFANotEnabled
	}

	if err := e.verifyPassword(pass, principal); err != nil {
		return err
	}

	err = e.store.UpdateMFAMaterial(ctx, principal.ID, principal.Version, MFAMaterial{})
	if err != nil {
		return err
	}

	e.log.Info("mfa disabled", zap.String("principal_id", principal.ID))
	return nil
}

// RegenerateRecoveryCodes discards the principal's recovery-code set and
// returns a fresh batch of eight. Requires active MFA and password
// re-verification.
func (e *Engine) RegenerateRecoveryCodes(ctx context.Context, principalID, pass string) ([]string, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !principal.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	if err := e.verifyPassword(pass, principal); err != nil {
		return nil, err
	}

	codes, err := mfa.NewRecoveryCodes()
	if err != nil {
		return nil, err
	}
	encoded, err := mfa.EncodeRecoverySet(codes)
	if err != nil {
		return nil, err
	}
	codesCT, err := e.cipher.Encrypt(encoded)
	if err != nil {
		return nil, err
	}

	err = e.store.UpdateMFAMaterial(ctx, principal.ID, principal.Version, MFAMaterial{
		Enabled:            true,
		SecretCiphertext:   principal.MFASecret,
		RecoveryCiphertext: codesCT,
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("recovery codes regenerated", zap.String("principal_id", principal.ID))
	return codes, nil
}

// MFAStatus reports whether MFA is active and how many recovery codes
// remain unredeemed.
func (e *Engine) MFAStatus(ctx context.Context, principalID string) (*MFAStatus, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	status := &MFAStatus{Enabled: principal.MFAEnabled}
	if principal.MFAEnabled && principal.RecoveryCodes != "" {
		encoded, err := e.cipher.Decrypt(principal.RecoveryCodes)
		if err != nil {
			return nil, err
		}
		set, err := mfa.DecodeRecoverySet(encoded)
		if err != nil {
			return nil, err
		}
		status.RecoveryCodesRemaining = len(set)
	}
	return status, nil
}

func (e *Engine) verifyPassword(pass string, principal Principal) error {
	ok, err := e.hasher.Verify(pass, principal.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	return nil
}
