package identity

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/auditforge/identity/password"
	"github.com/auditforge/identity/secrets"
	"github.com/auditforge/identity/token"
)

const revocationSweepInterval = 5 * time.Minute

// Builder wires an Engine. Configure with the With* methods, then call Build
// exactly once.
type Builder struct {
	config    Config
	configSet bool
	store     PrincipalStore
	redis     redis.UniversalClient
	log       *zap.Logger
	built     bool
}

// New returns a Builder preloaded with defaults.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the default configuration. Secrets must be set by the
// caller; defaults never include them.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.configSet = true
	return b
}

// WithStore supplies the principal persistence adapter. Required.
func (b *Builder) WithStore(store PrincipalStore) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client backing the email MFA code store and the
// login limiter. Optional; without it both features are disabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger supplies a structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// Build validates the configuration, constructs every component, starts the
// revocation sweeper, and returns the ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if b.configSet {
		defaults := defaultConfig()
		if cfg.Token.Issuer == "" {
			cfg.Token.Issuer = defaults.Token.Issuer
		}
		if cfg.Token.AccessTTL == 0 {
			cfg.Token.AccessTTL = defaults.Token.AccessTTL
		}
		if cfg.Token.RefreshTTL == 0 {
			cfg.Token.RefreshTTL = defaults.Token.RefreshTTL
		}
		if cfg.Token.ChallengeTTL == 0 {
			cfg.Token.ChallengeTTL = defaults.Token.ChallengeTTL
		}
		if cfg.Password.MinLength == 0 {
			cfg.Password.MinLength = defaults.Password.MinLength
		}
		if cfg.Password.Memory == 0 {
			minLength := cfg.Password.MinLength
			cfg.Password = defaults.Password
			cfg.Password.MinLength = minLength
		}
		if cfg.MFA.Issuer == "" {
			cfg.MFA.Issuer = defaults.MFA.Issuer
		}
		if cfg.EmailCode.TTL == 0 {
			cfg.EmailCode = defaults.EmailCode
		}
		if cfg.Limiter.RedisPrefix == "" {
			cfg.Limiter.RedisPrefix = defaults.Limiter.RedisPrefix
		}
		if cfg.Limiter.MaxLoginAttempts > 0 && cfg.Limiter.LoginCooldown == 0 {
			cfg.Limiter.LoginCooldown = defaults.Limiter.LoginCooldown
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("principal store required")
	}

	codec, err := token.New(cfg.tokenConfig())
	if err != nil {
		return nil, err
	}
	hasher, err := password.NewArgon2(cfg.argonConfig())
	if err != nil {
		return nil, err
	}
	cipher, err := secrets.New(cfg.EncryptionSecret)
	if err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = zap.NewNop()
	}

	engine := &Engine{
		config:      cfg,
		store:       b.store,
		codec:       codec,
		hasher:      hasher,
		policy:      password.NewPolicy(cfg.Password.MinLength),
		cipher:      cipher,
		revocations: NewRevocationRegistry(),
		emailCodes:  newEmailCodeStore(b.redis, cfg.EmailCode),
		limiter:     newLoginLimiter(b.redis, cfg.Limiter),
		metrics:     newMetrics(),
		log:         log,
	}
	engine.startSweeper(revocationSweepInterval)

	b.built = true
	return engine, nil
}
