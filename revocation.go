package identity

import (
	"sync"
	"time"
)

// RevocationRegistry is the process-wide record of token identifiers that
// must be rejected despite otherwise-valid signature and expiry. It is the
// only shared mutable state in the core: entries are added on logout and
// refresh rotation and consulted on every guarded request.
//
// Entries live in memory only; a restart forgets revocations. That is an
// accepted trade-off because every revoked token also carries its own expiry.
type RevocationRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewRevocationRegistry returns an empty registry.
func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{entries: make(map[string]time.Time)}
}

// Revoke records jti as invalid until expiry. An empty jti is a no-op, as is
// an expiry already in the past.
func (r *RevocationRegistry) Revoke(jti string, expiry time.Time) {
	if jti == "" || !expiry.After(time.Now()) {
		return
	}

	r.mu.Lock()
	r.entries[jti] = expiry
	r.mu.Unlock()
}

// TryRevoke records jti as invalid until expiry and reports whether this
// call inserted the entry. A jti that is already revoked and unexpired
// returns false, which lets callers use the registry as a single-winner
// gate. Empty jtis and past expiries return false without inserting.
func (r *RevocationRegistry) TryRevoke(jti string, expiry time.Time) bool {
	if jti == "" || !expiry.After(time.Now()) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.entries[jti]; ok && current.After(time.Now()) {
		return false
	}
	r.entries[jti] = expiry
	return true
}

// IsRevoked reports whether jti is currently revoked. Unknown and empty jtis
// are not revoked. An entry past its expiry no longer counts and is pruned
// lazily.
func (r *RevocationRegistry) IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}

	r.mu.RLock()
	expiry, ok := r.entries[jti]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if time.Now().After(expiry) {
		r.mu.Lock()
		// re-check under the write lock; a concurrent Revoke may have
		// extended the entry
		if current, still := r.entries[jti]; still && time.Now().After(current) {
			delete(r.entries, jti)
		}
		r.mu.Unlock()
		return false
	}
	return true
}

// Sweep removes every expired entry. Pruning is an optimization, not a
// correctness requirement; the engine runs it periodically.
func (r *RevocationRegistry) Sweep() {
	now := time.Now()

	r.mu.Lock()
	for jti, expiry := range r.entries {
		if now.After(expiry) {
			delete(r.entries, jti)
		}
	}
	r.mu.Unlock()
}

func (r *RevocationRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
