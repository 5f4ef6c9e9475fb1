package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errEmailCodeNotFound = errors.New("email code not found")
	errEmailCodeUsed     = errors.New("email code already used")
	errEmailCodeBackend  = errors.New("email code backend unavailable")
)

// emailCodeRecord is the persisted shape of one issued email MFA code. Only
// the adaptive hash is stored; the plaintext code exists solely in the
// response to the caller that dispatches the email.
type emailCodeRecord struct {
	Hash     string `json:"hash"`
	Used     bool   `json:"used"`
	IssuedAt int64  `json:"iat"`
}

// emailCodeStore keeps one live email MFA code per principal in Redis. The
// key TTL is the code's time-to-live, so expired and used codes purge
// themselves without a sweeper.
type emailCodeStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func newEmailCodeStore(client redis.UniversalClient, cfg EmailCodeConfig) *emailCodeStore {
	if client == nil {
		return nil
	}
	return &emailCodeStore{redis: client, prefix: cfg.RedisPrefix, ttl: cfg.TTL}
}

func (s *emailCodeStore) key(principalID string) string {
	return s.prefix + ":" + principalID
}

// Save stores a fresh record, replacing any live code for the principal.
func (s *emailCodeStore) Save(ctx context.Context, principalID string, record emailCodeRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(principalID), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errEmailCodeBackend, err)
	}
	return nil
}

// Get returns the live record for the principal, or errEmailCodeNotFound.
func (s *emailCodeStore) Get(ctx context.Context, principalID string) (*emailCodeRecord, error) {
	data, err := s.redis.Get(ctx, s.key(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errEmailCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", errEmailCodeBackend, err)
	}

	var record emailCodeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", errEmailCodeBackend, err)
	}
	return &record, nil
}

// markUsedScript swaps the stored record for its used form only while the
// unused form is still what Redis holds. The compare-and-swap runs inside
// Redis, so exactly one concurrent verification of the same code can win.
var markUsedScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
	return 1
end
return 0`)

// MarkUsed flips the used flag exactly once, keeping the original TTL so the
// record still expires on schedule. A record that was already flipped, or
// that expired between Get and this call, returns errEmailCodeUsed.
func (s *emailCodeStore) MarkUsed(ctx context.Context, principalID string, record *emailCodeRecord) error {
	if record.Used {
		return errEmailCodeUsed
	}

	unused, err := json.Marshal(record)
	if err != nil {
		return err
	}
	flipped := *record
	flipped.Used = true
	used, err := json.Marshal(flipped)
	if err != nil {
		return err
	}

	won, err := markUsedScript.Run(ctx, s.redis, []string{s.key(principalID)}, string(unused), string(used)).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", errEmailCodeBackend, err)
	}
	if won == 0 {
		return errEmailCodeUsed
	}
	record.Used = true
	return nil
}
