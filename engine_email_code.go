package identity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/auditforge/identity/mfa"
)

// IssueEmailMFACode generates a single-use 8-digit code for the secondary
// email MFA channel and stores only its adaptive hash with a fixed
// time-to-live. The plaintext code is returned for the caller to dispatch;
// the engine never sends email itself. Issuing replaces any still-live code
// for the principal.
func (e *Engine) IssueEmailMFACode(ctx context.Context, principalID string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if e.emailCodes == nil {
		return "", ErrEngineNotReady
	}

	principal, err := e.store.GetByID(ctx, principalID)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if !principal.Active {
		return "", ErrAccountDeactivated
	}

	code, err := mfa.NewEmailCode()
	if err != nil {
		return "", err
	}
	hash, err := e.hasher.Hash(code)
	if err != nil {
		return "", err
	}

	err = e.emailCodes.Save(ctx, principal.ID, emailCodeRecord{
		Hash:     hash,
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return "", err
	}

	e.log.Debug("email mfa code issued", zap.String("principal_id", principal.ID))
	return code, nil
}

// VerifyEmailMFACode redeems a code issued by IssueEmailMFACode. Expired,
// unknown, already-used, and mismatched codes are all rejected as
// ErrInvalidMFACode; a successful verification flips the used flag exactly
// once so the code can never be redeemed again.
func (e *Engine) VerifyEmailMFACode(ctx context.Context, principalID, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if e.emailCodes == nil {
		return ErrEngineNotReady
	}

	record, err := e.emailCodes.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, errEmailCodeNotFound) {
			e.metricInc(MetricMFAVerifyFailure)
			return ErrInvalidMFACode
		}
		return err
	}
	if record.Used {
		e.metricInc(MetricMFAVerifyFailure)
		return ErrInvalidMFACode
	}

	ok, err := e.hasher.Verify(code, record.Hash)
	if err != nil || !ok {
		e.metricInc(MetricMFAVerifyFailure)
		return ErrInvalidMFACode
	}

	if err := e.emailCodes.MarkUsed(ctx, principalID, record); err != nil {
		if errors.Is(err, errEmailCodeUsed) {
			e.metricInc(MetricMFAVerifyFailure)
			return ErrInvalidMFACode
		}
		return err
	}

	e.metricInc(MetricMFAVerifySuccess)
	e.log.Debug("email mfa code verified", zap.String("principal_id", principalID))
	return nil
}
