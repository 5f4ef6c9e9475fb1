package identity

import (
	"time"

	"go.uber.org/zap"

	"github.com/auditforge/identity/password"
	"github.com/auditforge/identity/secrets"
	"github.com/auditforge/identity/token"
)

// Engine composes the cipher, hasher, token codec, revocation registry, and
// MFA primitives into the authentication use cases. It is the only component
// other subsystems call. Construct through [Builder.Build]; all methods are
// safe for concurrent use afterwards.
type Engine struct {
	config      Config
	store       PrincipalStore
	codec       *token.Codec
	hasher      *password.Argon2
	policy      password.Policy
	cipher      *secrets.Cipher
	revocations *RevocationRegistry
	emailCodes  *emailCodeStore
	limiter     *loginLimiter
	metrics     *Metrics
	log         *zap.Logger

	sweepStop chan struct{}
}

// Close stops the background revocation sweeper. The engine is unusable
// afterwards.
func (e *Engine) Close() {
	if e == nil || e.sweepStop == nil {
		return
	}
	close(e.sweepStop)
	e.sweepStop = nil
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// Revocations exposes the registry for upstream request filters that check
// jtis directly instead of going through IsBlacklisted.
func (e *Engine) Revocations() *RevocationRegistry {
	if e == nil {
		return nil
	}
	return e.revocations
}

// Codec exposes the token codec for upstream request filters.
func (e *Engine) Codec() *token.Codec {
	if e == nil {
		return nil
	}
	return e.codec
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.codec != nil && e.hasher != nil &&
		e.cipher != nil && e.revocations != nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) startSweeper(interval time.Duration) {
	e.sweepStop = make(chan struct{})
	go func(stop <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.revocations.Sweep()
			case <-stop:
				return
			}
		}
	}(e.sweepStop)
}
