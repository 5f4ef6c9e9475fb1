package mfa

import (
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30
	totpSecretSize = 20
)

// Provision holds the plaintext output of a secret generation: the base32
// secret and the otpauth:// URI an authenticator app enrolls from. This is
// the only form in which the secret ever leaves the engine unencrypted.
type Provision struct {
	Secret string
	URI    string
}

// GenerateSecret creates a fresh random TOTP secret for accountName under
// the given issuer and returns it with its provisioning URI.
func GenerateSecret(issuer, accountName string) (*Provision, error) {
	issuer = strings.TrimSpace(issuer)
	accountName = strings.TrimSpace(accountName)
	if issuer == "" || accountName == "" {
		return nil, errors.New("issuer and account name required")
	}
	if strings.Contains(issuer, ":") || strings.Contains(accountName, ":") {
		return nil, errors.New("issuer and account name must not contain a colon")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  totpSecretSize,
	})
	if err != nil {
		return nil, err
	}

	return &Provision{Secret: key.Secret(), URI: key.URL()}, nil
}

// ValidateCode reports whether code matches the current TOTP value for
// secret, tolerating one period of clock skew on either side.
func ValidateCode(secret, code string) bool {
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
