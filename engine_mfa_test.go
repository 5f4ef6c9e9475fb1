package identity_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/auditforge/identity"
)

var eightDigits = regexp.MustCompile(`^\d{8}$`)

func TestBeginMFAEnrollment(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	enrollment, err := h.engine.BeginMFAEnrollment(context.Background(), id, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/")
	require.Len(t, enrollment.RecoveryCodes, 8)
	for _, code := range enrollment.RecoveryCodes {
		require.Regexp(t, eightDigits, code)
	}

	// persisted material is ciphertext and MFA stays off until confirmed
	principal, err := h.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.False(t, principal.MFAEnabled)
	require.NotEmpty(t, principal.MFASecret)
	require.NotEqual(t, enrollment.Secret, principal.MFASecret)
	require.NotEmpty(t, principal.RecoveryCodes)
	for _, code := range enrollment.RecoveryCodes {
		require.NotContains(t, principal.RecoveryCodes, code)
	}
}

func TestBeginMFAEnrollment_Preconditions(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	_, err := h.engine.BeginMFAEnrollment(context.Background(), id, "WrongP@ss1x")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)

	enableMFA(t, h, id)

	_, err = h.engine.BeginMFAEnrollment(context.Background(), id, testPassword)
	require.ErrorIs(t, err, identity.ErrMFAAlreadyEnabled)
}

func TestConfirmMFAEnrollment(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	// nothing provisioned yet
	err := h.engine.ConfirmMFAEnrollment(context.Background(), id, "123456")
	require.ErrorIs(t, err, identity.ErrMFANotConfigured)

	enrollment, err := h.engine.BeginMFAEnrollment(context.Background(), id, testPassword)
	require.NoError(t, err)

	// a failed confirmation leaves the pending secret intact for retry
	err = h.engine.ConfirmMFAEnrollment(context.Background(), id, "000000")
	require.ErrorIs(t, err, identity.ErrInvalidMFACode)

	principal, err := h.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, principal.MFASecret)
	require.False(t, principal.MFAEnabled)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, h.engine.ConfirmMFAEnrollment(context.Background(), id, code))

	principal, err = h.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, principal.MFAEnabled)

	// confirming twice is rejected
	code, err = totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)
	err = h.engine.ConfirmMFAEnrollment(context.Background(), id, code)
	require.ErrorIs(t, err, identity.ErrMFAAlreadyEnabled)
}

func TestRecoveryCode_SingleUse(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)
	enrollment := enableMFA(t, h, id)
	recovery := enrollment.RecoveryCodes[3]

	login, err := h.engine.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	finished, err := h.engine.VerifyMFALogin(context.Background(), login.ChallengeToken, recovery)
	require.NoError(t, err)
	require.NotEmpty(t, finished.AccessToken)

	status, err := h.engine.MFAStatus(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 7, status.RecoveryCodesRemaining)

	// the same code must never redeem twice
	login, err = h.engine.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	_, err = h.engine.VerifyMFALogin(context.Background(), login.ChallengeToken, recovery)
	require.ErrorIs(t, err, identity.ErrInvalidRecoveryCode)
}

func TestRecoveryCode_ConcurrentRedemption(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)
	enrollment := enableMFA(t, h, id)
	recovery := enrollment.RecoveryCodes[0]

	const attempts = 8
	challenges := make([]string, attempts)
	for i := range challenges {
		login, err := h.engine.Login(context.Background(), testEmail, testPassword)
		require.NoError(t, err)
		challenges[i] = login.ChallengeToken
	}

	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(challenge string) {
			defer wg.Done()
			if _, err := h.engine.VerifyMFALogin(context.Background(), challenge, recovery); err == nil {
				successes <- struct{}{}
			}
		}(challenges[i])
	}
	wg.Wait()
	close(successes)

	var count int
	for range successes {
		count++
	}
	require.Equal(t, 1, count, "a recovery code must redeem exactly once under concurrency")

	status, err := h.engine.MFAStatus(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, 7, status.RecoveryCodesRemaining)
}

func TestMFA_CorruptStoredMaterial(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	principal, err := h.store.GetByID(context.Background(), id)
	require.NoError(t, err)

	// pending secret that no longer decrypts: confirmation must read as a
	// bad code, not surface cipher internals
	err = h.store.UpdateMFAMaterial(context.Background(), id, principal.Version, identity.MFAMaterial{
		SecretCiphertext: "not-a-ciphertext",
	})
	require.NoError(t, err)

	err = h.engine.ConfirmMFAEnrollment(context.Background(), id, "123456")
	require.ErrorIs(t, err, identity.ErrInvalidMFACode)

	principal, err = h.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	err = h.store.UpdateMFAMaterial(context.Background(), id, principal.Version, identity.MFAMaterial{
		Enabled:            true,
		SecretCiphertext:   "not-a-ciphertext",
		RecoveryCiphertext: "not-a-ciphertext",
	})
	require.NoError(t, err)

	login, err := h.engine.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	_, err = h.engine.VerifyMFALogin(context.Background(), login.ChallengeToken, "123456")
	require.ErrorIs(t, err, identity.ErrInvalidMFACode)

	_, err = h.engine.VerifyMFALogin(context.Background(), login.ChallengeToken, "12345678")
	require.ErrorIs(t, err, identity.ErrInvalidRecoveryCode)
}

func TestDisableMFA(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	err := h.engine.DisableMFA(context.Background(), id, testPassword)
	require.ErrorIs(t, err, identity.ErrMFANotEnabled)

	enableMFA(t, h, id)

	err = h.engine.DisableMFA(context.Background(), id, "WrongP@ss1x")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)

	require.NoError(t, h.engine.DisableMFA(context.Background(), id, testPassword))

	principal, err := h.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.False(t, principal.MFAEnabled)
	require.Empty(t, principal.MFASecret)
	require.Empty(t, principal.RecoveryCodes)
}

func TestRegenerateRecoveryCodes(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	_, err := h.engine.RegenerateRecoveryCodes(context.Background(), id, testPassword)
	require.ErrorIs(t, err, identity.ErrMFANotEnabled)

	enrollment := enableMFA(t, h, id)

	fresh, err := h.engine.RegenerateRecoveryCodes(context.Background(), id, testPassword)
	require.NoError(t, err)
	require.Len(t, fresh, 8)
	for _, code := range fresh {
		require.Regexp(t, eightDigits, code)
	}

	// the old set is discarded wholesale
	login, err := h.engine.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	_, err = h.engine.VerifyMFALogin(context.Background(), login.ChallengeToken, enrollment.RecoveryCodes[0])
	require.ErrorIs(t, err, identity.ErrInvalidRecoveryCode)

	login, err = h.engine.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	_, err = h.engine.VerifyMFALogin(context.Background(), login.ChallengeToken, fresh[0])
	require.NoError(t, err)
}

func TestMFAStatus(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	id := h.registerPrincipal(t)

	status, err := h.engine.MFAStatus(context.Background(), id)
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.Zero(t, status.RecoveryCodesRemaining)

	enableMFA(t, h, id)

	status, err = h.engine.MFAStatus(context.Background(), id)
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.Equal(t, 8, status.RecoveryCodesRemaining)
}
