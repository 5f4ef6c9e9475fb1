package identity

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike so a
	// caller cannot enumerate accounts. Principal-not-found on token-derived
	// lookups maps here for the same reason.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated is returned when the principal exists but has been
	// deactivated.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrWeakPassword is returned when a new password fails the strength
	// policy. It carries no detail about which rule failed.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
	// ErrDuplicateEmail is returned by Register when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrLoginRateLimited is returned when an email has exceeded its failed
	// login budget for the cooldown window.
	ErrLoginRateLimited = errors.New("login rate limited")

	// ErrTokenInvalid is returned for unparseable tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongType is returned when a token of one type is presented
	// where another is required.
	ErrTokenWrongType = errors.New("wrong token type")
	// ErrTokenRevoked is returned when a token's jti is on the revocation
	// registry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidChallenge is returned when MFA verification is attempted with
	// anything other than a live mfa_challenge token.
	ErrInvalidChallenge = errors.New("invalid mfa challenge")

	// ErrMFAAlreadyEnabled is returned when enrollment is attempted on a
	// principal whose MFA is already active.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrMFANotEnabled is returned by operations that require active MFA.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrMFANotConfigured is returned when enrollment confirmation is
	// attempted before a secret was provisioned.
	ErrMFANotConfigured = errors.New("mfa not configured")
	// ErrInvalidMFACode is returned for a TOTP or email code that does not
	// verify.
	ErrInvalidMFACode = errors.New("invalid mfa code")
	// ErrInvalidRecoveryCode is returned for a recovery code absent from the
	// principal's active set.
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")

	// ErrPrincipalNotFound is the store-level lookup miss. The engine maps it
	// to ErrInvalidCredentials at the authentication boundary.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrVersionConflict is returned by PrincipalStore implementations when a
	// versioned write loses an optimistic-concurrency race.
	ErrVersionConflict = errors.New("principal version conflict")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build completed its wiring.
	ErrEngineNotReady = errors.New("engine not initialized")
)
