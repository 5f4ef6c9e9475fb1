package identity

import (
	"time"
)

// Blacklist records a jti as revoked until expiry. An empty jti is a no-op.
func (e *Engine) Blacklist(jti string, expiry time.Time) {
	if e == nil || e.revocations == nil {
		return
	}
	e.revocations.Revoke(jti, expiry)
	if jti != "" {
		e.metricInc(MetricTokenRevoked)
	}
}

// IsBlacklisted reports whether a jti has been revoked. Unknown and empty
// jtis return false.
func (e *Engine) IsBlacklisted(jti string) bool {
	if e == nil || e.revocations == nil {
		return false
	}
	return e.revocations.IsRevoked(jti)
}

// Logout revokes the jtis of the presented tokens until their natural
// expiries. Tokens that no longer parse are skipped; there is nothing left
// to revoke once signature or expiry checks would already reject them.
func (e *Engine) Logout(accessToken, refreshToken string) {
	if e == nil || e.codec == nil {
		return
	}

	for _, tok := range []string{accessToken, refreshToken} {
		if tok == "" {
			continue
		}
		claims, err := e.codec.Parse(tok)
		if err != nil || claims.ExpiresAt == nil {
			continue
		}
		e.Blacklist(claims.ID, claims.ExpiresAt.Time)
	}
}
