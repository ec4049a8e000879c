// Package auth verifies bearer tokens and turns them into a caller
// identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwalitptl/booking-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// IdentityProvider resolves the caller behind a credential
type IdentityProvider interface {
	Identify(ctx context.Context, token string) (model.Identity, error)
}

// Claims carries the user id in sub and the user kind in user_type
type Claims struct {
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// JWTProvider issues and verifies HS256 tokens
type JWTProvider struct {
	config JWTConfig
}

func NewJWTProvider(config JWTConfig) (*JWTProvider, error) {
	if config.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &JWTProvider{config: config}, nil
}

func (p *JWTProvider) Identify(ctx context.Context, token string) (model.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(p.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return model.Identity{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	userType, err := model.ParseUserType(claims.UserType)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return model.Identity{UserID: userID, UserType: userType}, nil
}

// Issue signs a token for the identity. Used by the seed command and
// tests; login is handled elsewhere.
func (p *JWTProvider) Issue(id model.Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		UserType: string(id.UserType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    p.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.config.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
