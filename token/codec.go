package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type discriminates what a token is good for. Presenting a token of one
// type where another is required is always rejected by the engine.
type Type string

const (
	// TypeAccess authorizes resource requests.
	TypeAccess Type = "access"
	// TypeRefresh authorizes minting a new token pair.
	TypeRefresh Type = "refresh"
	// TypeChallenge authorizes exactly one MFA verification step after a
	// successful password check.
	TypeChallenge Type = "mfa_challenge"
)

const minSigningSecret = 32

var (
	// ErrInvalid covers unparseable tokens, bad signatures, and claims that
	// fail structural validation.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned for a well-signed token past its expiry.
	ErrExpired = errors.New("token expired")
)

// Config holds signing material and per-type lifetimes.
type Config struct {
	SigningSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ChallengeTTL  time.Duration
	Leeway        time.Duration
}

// Claims is the payload carried by every issued token. Subject is the
// principal id and ID (jti) is the revocation key. Roles are present on
// access and refresh tokens only, captured at issuance time.
type Claims struct {
	TokenType Type     `json:"typ"`
	Roles     []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens. Safe for concurrent use; configuration is
// immutable after New.
type Codec struct {
	config Config
}

// New validates cfg and returns a Codec. The signing secret must be at least
// 32 bytes and every TTL positive.
func New(cfg Config) (*Codec, error) {
	if len(cfg.SigningSecret) < minSigningSecret {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minSigningSecret)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ChallengeTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Issue signs a token of the given type for principalID with a fresh jti.
// Roles are embedded only on access and refresh tokens; a challenge token
// never carries role information.
func (c *Codec) Issue(principalID string, typ Type, roles []string) (string, error) {
	ttl, err := c.TTL(typ)
	if err != nil {
		return "", err
	}
	if typ == TypeChallenge {
		roles = nil
	}

	now := time.Now()
	claims := Claims{
		TokenType: typ,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ID:        uuid.NewString(),
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.SigningSecret)
}

// Parse verifies signature and expiry and returns the claims. Failures map
// to ErrExpired for an otherwise valid token past its lifetime and ErrInvalid
// for everything else.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.SigningSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	switch claims.TokenType {
	case TypeAccess, TypeRefresh, TypeChallenge:
	default:
		return nil, ErrInvalid
	}
	return claims, nil
}

// Validate reports whether the token carries a good signature and has not
// expired. It performs no type check and no revocation lookup.
func (c *Codec) Validate(tokenStr string) bool {
	_, err := c.Parse(tokenStr)
	return err == nil
}

// IsType reports whether the token parses cleanly and carries the given
// type claim.
func (c *Codec) IsType(tokenStr string, typ Type) bool {
	claims, err := c.Parse(tokenStr)
	if err != nil {
		return false
	}
	return claims.TokenType == typ
}

// TTL returns the configured lifetime for a token type.
func (c *Codec) TTL(typ Type) (time.Duration, error) {
	switch typ {
	case TypeAccess:
		return c.config.AccessTTL, nil
	case TypeRefresh:
		return c.config.RefreshTTL, nil
	case TypeChallenge:
		return c.config.ChallengeTTL, nil
	default:
		return 0, fmt.Errorf("unknown token type %q", typ)
	}
}
