// Package auth mints and validates the bearer tokens that guard the admin API.
package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"lawnorm/internal/config"
	"lawnorm/internal/domain"
)

// Roles carried in tokens.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

const audience = "lawnorm-api"

// DefaultExpiry applies when the config leaves TokenExpiry unset.
const DefaultExpiry = 24 * time.Hour

// Claims are the JWT claims of an API token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Token is a signed token and its expiry.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. An empty secret is rejected.
func NewIssuer(cfg config.JWTConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: jwt secret is required", domain.ErrInvalidInput)
	}
	expiry := cfg.TokenExpiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Issuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, expiry: expiry, now: time.Now}, nil
}

// Mint signs a token for subject with the given role.
func (i *Issuer) Mint(subject, role string) (*Token, error) {
	if subject == "" {
		return nil, fmt.Errorf("%w: token subject is required", domain.ErrInvalidInput)
	}
	if role != RoleAdmin && role != RoleViewer {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	now := i.now()
	expiresAt := now.Add(i.expiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audience},
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}
	return &Token{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a token. Any failure is domain.ErrUnauthorized.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithTimeFunc(i.now)}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	aud, _ := claims.GetAudience()
	if !slices.Contains([]string(aud), audience) {
		return nil, fmt.Errorf("%w: wrong token audience", domain.ErrUnauthorized)
	}
	return claims, nil
}
