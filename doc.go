// Package identity is the authentication and session-security core of the
// AuditForge code-audit platform: password login, JSON-claims token issuance
// and revocation, and TOTP multi-factor authentication with encrypted secrets
// and single-use recovery codes.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// identity is the public surface. It exposes [Engine], [Builder], [Config],
// the [PrincipalStore] integration interface, and value types (TokenPair,
// LoginResult, Enrollment). The cryptographic primitives live in the secrets,
// password, token, and mfa subpackages; persistence adapters under store/.
//
// Business-domain services consume this package only through "who is the
// current principal" and "which roles does this principal hold", both
// answered by the claims the guard middleware extracts per request.
//
// # What this package must NOT do
//
//   - Persist principals itself; callers supply a [PrincipalStore].
//   - Dispatch email or webhooks; issued email MFA codes are returned to the
//     caller for out-of-band delivery.
//   - Log or return plaintext credentials, TOTP secrets, or recovery codes
//     outside the single documented enrollment moment.
package identity
