// Package session mints and verifies the stateless JWTs used for API access
// and refresh.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: malformed, expired, bad
// signature, wrong algorithm or unknown class.
var ErrInvalidToken = errors.New("invalid session token")

type Class string

const (
	ClassAccess       Class = "access"
	ClassRefreshShort Class = "refresh_short"
	ClassRefreshLong  Class = "refresh_long"
)

func (c Class) IsRefresh() bool {
	return c == ClassRefreshShort || c == ClassRefreshLong
}

// RefreshClass picks the refresh lifetime from the "remember me" flag.
func RefreshClass(remember bool) Class {
	if remember {
		return ClassRefreshLong
	}
	return ClassRefreshShort
}

type Claims struct {
	UserID string `json:"user_id"`
	Type   Class  `json:"type"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret          []byte
	AccessTTL       time.Duration
	RefreshShortTTL time.Duration
	RefreshLongTTL  time.Duration
}

type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes, got %d", len(cfg.Secret))
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshShortTTL <= 0 || cfg.RefreshLongTTL <= 0 {
		return nil, errors.New("token ttls must be positive")
	}
	if cfg.AccessTTL >= cfg.RefreshShortTTL {
		return nil, errors.New("access ttl must be shorter than refresh ttl")
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source. Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) TTL(class Class) time.Duration {
	switch class {
	case ClassAccess:
		return i.cfg.AccessTTL
	case ClassRefreshShort:
		return i.cfg.RefreshShortTTL
	case ClassRefreshLong:
		return i.cfg.RefreshLongTTL
	}
	return 0
}

func (i *Issuer) IssueAccess(userID string) (string, error) {
	return i.issue(userID, ClassAccess)
}

func (i *Issuer) IssueRefresh(userID string, class Class) (string, error) {
	if !class.IsRefresh() {
		return "", fmt.Errorf("issue refresh: unexpected class %q", class)
	}
	return i.issue(userID, class)
}

func (i *Issuer) issue(userID string, class Class) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		Type:   class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL(class))),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify parses and validates raw. The class is not checked here; callers
// decide which classes they accept.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || (claims.Type != ClassAccess && !claims.Type.IsRefresh()) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
