package identity

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginLimiter enforces a fixed-window failed-attempt budget per email
// address: INCR plus EXPIRE on the first hit in a window. Failures on the
// Redis side fail open; the limiter is a brake, not a correctness gate.
type loginLimiter struct {
	redis    redis.UniversalClient
	prefix   string
	max      int
	cooldown time.Duration
}

func newLoginLimiter(client redis.UniversalClient, cfg LimiterConfig) *loginLimiter {
	if client == nil || cfg.MaxLoginAttempts <= 0 {
		return nil
	}
	return &loginLimiter{
		redis:    client,
		prefix:   cfg.RedisPrefix,
		max:      cfg.MaxLoginAttempts,
		cooldown: cfg.LoginCooldown,
	}
}

func (l *loginLimiter) key(email string) string {
	return l.prefix + ":" + strings.ToLower(email)
}

// Check returns ErrLoginRateLimited when the email has exhausted its budget.
func (l *loginLimiter) Check(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}

	count, err := l.redis.Get(ctx, l.key(email)).Int()
	if err != nil {
		return nil
	}
	if count >= l.max {
		return ErrLoginRateLimited
	}
	return nil
}

// RecordFailure counts one failed attempt against the email.
func (l *loginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil {
		return
	}

	key := l.key(email)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if count == 1 {
		_ = l.redis.Expire(ctx, key, l.cooldown).Err()
	}
}

// Reset clears the counter after a successful authentication.
func (l *loginLimiter) Reset(ctx context.Context, email string) {
	if l == nil {
		return
	}
	_ = l.redis.Del(ctx, l.key(email)).Err()
}
