package password

import (
	"errors"
	"unicode"
)

// DefaultMinLength is the policy floor applied when no minimum is configured.
const DefaultMinLength = 10

// ErrWeak is returned for any policy violation. It deliberately carries no
// detail about which rule failed so rejections do not narrow the guessing
// surface for an attacker probing the policy.
var ErrWeak = errors.New("password does not meet strength requirements")

// Policy is a stateless strength check: minimum length plus at least one
// uppercase letter, one digit, and one special character.
type Policy struct {
	minLength int
}

// NewPolicy returns a Policy with the given minimum length. Values below 1
// fall back to DefaultMinLength.
func NewPolicy(minLength int) Policy {
	if minLength < 1 {
		minLength = DefaultMinLength
	}
	return Policy{minLength: minLength}
}

// Validate returns nil when candidate satisfies the policy and ErrWeak
// otherwise.
func (p Policy) Validate(candidate string) error {
	if len(candidate) < p.minLength {
		return ErrWeak
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasDigit || !hasSpecial {
		return ErrWeak
	}
	return nil
}
