package mfa

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

const (
	// RecoveryCodeCount is the size of every generated recovery-code batch.
	RecoveryCodeCount = 8
	// RecoveryCodeDigits is the length of each numeric recovery code.
	RecoveryCodeDigits = 8
)

var recoveryCodePattern = regexp.MustCompile(`^\d{8}$`)

// NewRecoveryCodes generates RecoveryCodeCount unique RecoveryCodeDigits-digit
// numeric codes from crypto/rand.
func NewRecoveryCodes() ([]string, error) {
	seen := make(map[string]struct{}, RecoveryCodeCount)
	codes := make([]string, 0, RecoveryCodeCount)

	for len(codes) < RecoveryCodeCount {
		code, err := newNumericCode(RecoveryCodeDigits)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}

// NewEmailCode generates a single RecoveryCodeDigits-digit numeric code for
// the email MFA channel.
func NewEmailCode() (string, error) {
	return newNumericCode(RecoveryCodeDigits)
}

// IsRecoveryCodeShaped reports whether the input looks like a recovery code
// rather than a 6-digit TOTP value.
func IsRecoveryCodeShaped(code string) bool {
	return recoveryCodePattern.MatchString(strings.TrimSpace(code))
}

// EncodeRecoverySet serializes the active code set. The result is what the
// caller encrypts and persists.
func EncodeRecoverySet(codes []string) (string, error) {
	if codes == nil {
		codes = []string{}
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeRecoverySet reverses EncodeRecoverySet.
func DecodeRecoverySet(encoded string) ([]string, error) {
	var codes []string
	if err := json.Unmarshal([]byte(encoded), &codes); err != nil {
		return nil, errors.New("malformed recovery code set")
	}
	return codes, nil
}

// Redeem removes the first code matching candidate from set and returns the
// reduced set. ok is false when no code matches; the set is returned
// unchanged in that case. Comparison is constant-time per entry.
func Redeem(set []string, candidate string) (remaining []string, ok bool) {
	candidate = strings.TrimSpace(candidate)

	for i, code := range set {
		if len(code) == len(candidate) &&
			subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) == 1 {
			remaining = make([]string, 0, len(set)-1)
			remaining = append(remaining, set[:i]...)
			remaining = append(remaining, set[i+1:]...)
			return remaining, true
		}
	}
	return set, false
}

func newNumericCode(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
