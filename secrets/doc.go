// Package secrets provides authenticated encryption for material the engine
// persists at rest: TOTP secrets, recovery-code sets, and third-party
// credentials.
//
// Ciphertext is self-contained: a fresh random nonce is generated per call and
// prepended to the AES-256-GCM output before base64 encoding, so decryption
// needs nothing beyond the process key. The key is derived once from the
// configured encryption secret and never rotated in-process.
package secrets
