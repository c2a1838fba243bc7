// Package token signs and verifies the two JWT kinds used for sessions:
// short-lived access tokens carrying denormalised profile fields and
// longer-lived refresh tokens carrying only the subject id.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers any verification failure: bad signature, wrong
// signing method, malformed token, or expiry in the past.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are embedded in access tokens. Subject holds the user id.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims are embedded in refresh tokens; only the subject id.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Config holds the signing keys and validity windows for both token kinds.
type Config struct {
	AccessKey  []byte
	RefreshKey []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies session tokens. Safe for concurrent use.
type Codec struct {
	cfg Config
}

// NewCodec validates the configuration and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0 {
		return nil, errors.New("token: signing keys are required")
	}
	if cfg.AccessTTL == 0 || cfg.RefreshTTL == 0 {
		return nil, errors.New("token: validity durations are required")
	}
	return &Codec{cfg: cfg}, nil
}

// SignAccess mints an access token asserting the user's id, username, and
// email for the configured access window.
func (c *Codec) SignAccess(userID uuid.UUID, username, email string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.AccessKey)
}

// SignRefresh mints a refresh token asserting only the user's id. The jti
// claim makes every issued token distinct even within one clock second.
func (c *Codec) SignRefresh(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.RefreshKey)
}

// VerifyAccess checks signature and expiry of an access token and returns
// its claims.
func (c *Codec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims, c.cfg.AccessKey); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry of a refresh token and returns
// the subject user id.
func (c *Codec) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenString, claims, c.cfg.RefreshKey); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
