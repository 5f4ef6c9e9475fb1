// Package token issues and verifies the signed bearer tokens the engine
// hands out: short-lived access tokens, long-lived refresh tokens, and
// very-short-lived MFA challenge tokens.
//
// Tokens are self-contained JWTs signed with HS256 under a configured secret.
// Signature and expiry verification is stateless; revocation is layered on
// top by the engine's revocation registry and never consulted here.
package token
