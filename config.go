package identity

import (
	"errors"
	"time"

	"github.com/auditforge/identity/password"
	"github.com/auditforge/identity/secrets"
	"github.com/auditforge/identity/token"
)

// Config carries every tunable the engine recognizes. Zero values are filled
// from defaultConfig by the Builder; Validate runs before any component is
// constructed.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	MFA       MFAConfig
	EmailCode EmailCodeConfig
	Limiter   LimiterConfig

	// EncryptionSecret derives the process-lifetime AES key protecting MFA
	// material at rest. Minimum 32 bytes.
	EncryptionSecret string
}

// TokenConfig mirrors the token.Codec configuration surface.
type TokenConfig struct {
	SigningSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ChallengeTTL  time.Duration
	Leeway        time.Duration
}

// PasswordConfig combines policy and Argon2id cost settings.
type PasswordConfig struct {
	MinLength   int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// MFAConfig controls TOTP provisioning.
type MFAConfig struct {
	// Issuer is the name authenticator apps display for enrolled accounts.
	Issuer string
}

// EmailCodeConfig controls the secondary email MFA channel.
type EmailCodeConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

// LimiterConfig bounds failed login attempts per email address. A zero
// MaxLoginAttempts disables the limiter.
type LimiterConfig struct {
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	RedisPrefix      string
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:       "auditforge-identity",
			AccessTTL:    15 * time.Minute,
			RefreshTTL:   7 * 24 * time.Hour,
			ChallengeTTL: 5 * time.Minute,
		},
		Password: PasswordConfig{
			MinLength:   password.DefaultMinLength,
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		MFA: MFAConfig{
			Issuer: "AuditForge",
		},
		EmailCode: EmailCodeConfig{
			TTL:         10 * time.Minute,
			RedisPrefix: "emc",
		},
		Limiter: LimiterConfig{
			MaxLoginAttempts: 10,
			LoginCooldown:    15 * time.Minute,
			RedisPrefix:      "llim",
		},
	}
}

// Validate checks the configuration invariants the engine depends on.
func (c Config) Validate() error {
	if len(c.Token.SigningSecret) < 32 {
		return errors.New("token signing secret must be at least 32 bytes")
	}
	if len(c.EncryptionSecret) < secrets.MinSecretLength {
		return errors.New("encryption secret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 || c.Token.ChallengeTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Password.MinLength < 1 {
		return errors.New("password minimum length must be positive")
	}
	if c.MFA.Issuer == "" {
		return errors.New("mfa issuer required")
	}
	if c.EmailCode.TTL <= 0 {
		return errors.New("email code TTL must be positive")
	}
	if c.Limiter.MaxLoginAttempts < 0 {
		return errors.New("login attempt budget must not be negative")
	}
	if c.Limiter.MaxLoginAttempts > 0 && c.Limiter.LoginCooldown <= 0 {
		return errors.New("login cooldown must be positive when the limiter is enabled")
	}
	return nil
}

func (c Config) tokenConfig() token.Config {
	return token.Config{
		SigningSecret: []byte(c.Token.SigningSecret),
		Issuer:        c.Token.Issuer,
		AccessTTL:     c.Token.AccessTTL,
		RefreshTTL:    c.Token.RefreshTTL,
		ChallengeTTL:  c.Token.ChallengeTTL,
		Leeway:        c.Token.Leeway,
	}
}

func (c Config) argonConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}
