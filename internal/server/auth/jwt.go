// Package auth issues and verifies the HS256 bearer tokens carried by
// authenticated requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the principal identity. The token is the only source of
// the role at verification time; the gate re-reads the user afterwards.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64       `json:"id"`
	Login  string      `json:"login"`
	Role   models.Role `json:"role"`
}

func (c *Claims) Principal() *models.Principal {
	return &models.Principal{ID: c.UserID, Login: c.Login, Role: c.Role}
}

// Authority signs and verifies tokens with a single shared secret.
// Verification is pure: it touches no storage.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Authority)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

func NewAuthority(secret []byte, ttl time.Duration, opts ...Option) (*Authority, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret key")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	a := &Authority{secret: secret, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Issue signs a token for p that expires after the configured TTL.
func (a *Authority) Issue(p models.Principal) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		UserID: p.ID,
		Login:  p.Login,
		Role:   p.Role,
	})

	s, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Errors are common.ErrTokenMalformed, common.ErrTokenSignature or
// common.ErrTokenExpired. Expiry has no leeway.
func (a *Authority) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrTokenSignature
	default:
		return common.ErrTokenMalformed
	}
}
