// Package mfa provides the TOTP and recovery-code primitives behind
// multi-factor enrollment and verification.
//
// TOTP follows RFC 6238 defaults (SHA-1, 6 digits, 30-second period) via
// pquerna/otp. Recovery codes are 8-digit numeric single-use credentials
// generated in batches of eight; the set is serialized as a JSON array and
// encrypted by the caller before it is persisted.
package mfa
