// Package password implements credential-strength policy and one-way adaptive
// hashing with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns strength validation, hashing, and verification only.
// When to accept or reject a credential is the Engine's concern.
//
// Plaintext passwords are never stored, logged, or returned by any function
// in this package.
package password
