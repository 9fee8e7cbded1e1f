// Package auth issues and verifies the access tokens of the API.
// Accounts live in the identity provider; the API trusts any token signed
// with the shared secret and reads the caller's permissions from it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "staffdesk/internal/core/context"
)

// TokenConfig configures HS256 access tokens. Leeway absorbs clock skew
// between the identity provider and the API.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
}

// NewTokenConfig returns a 15 minute token config for secret.
func NewTokenConfig(secret, issuer string) TokenConfig {
	if issuer == "" {
		issuer = "staffdesk"
	}
	return TokenConfig{Secret: secret, Issuer: issuer, TTL: 15 * time.Minute}
}

type claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	Admin       bool     `json:"adm,omitempty"`
}

// Tokens issues and verifies access tokens.
type Tokens struct {
	cfg    TokenConfig
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	t := &Tokens{cfg: cfg, now: time.Now}
	t.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	return t
}

// Issue signs a token for user and returns it with its expiry.
func (t *Tokens) Issue(user appctx.UserContext) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.cfg.TTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:       user.Email,
		Roles:       user.Roles,
		Permissions: user.Permissions,
		Admin:       user.IsAdmin,
	})
	signed, err := token.SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, issuer and expiry of raw and returns the
// caller it describes. The subject claim is the user id.
func (t *Tokens) Verify(raw string) (*appctx.UserContext, error) {
	var c claims
	if _, err := t.parser.ParseWithClaims(raw, &c, t.key); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if c.Subject == "" {
		return nil, errors.New("verify token: no subject")
	}
	return &appctx.UserContext{
		UserID:      c.Subject,
		Email:       c.Email,
		Roles:       c.Roles,
		Permissions: c.Permissions,
		IsAdmin:     c.Admin,
	}, nil
}

func (t *Tokens) key(*jwt.Token) (any, error) {
	return []byte(t.cfg.Secret), nil
}
