package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/auth"
	"lawnorm/internal/config"
	"lawnorm/internal/domain"
)

func newIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer(config.JWTConfig{Secret: "test-secret", Issuer: "lawnorm", TokenExpiry: time.Hour})
	require.NoError(t, err)
	return iss
}

func TestIssuer_MintAndValidate(t *testing.T) {
	iss := newIssuer(t)

	tok, err := iss.Mint("ops", auth.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, time.Minute)

	claims, err := iss.Validate(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestIssuer_RequiresSecret(t *testing.T) {
	_, err := auth.NewIssuer(config.JWTConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssuer_MintRejectsBadInput(t *testing.T) {
	iss := newIssuer(t)

	_, err := iss.Mint("", auth.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = iss.Mint("ops", "superuser")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssuer_ValidateRejectsForeignSecret(t *testing.T) {
	other, err := auth.NewIssuer(config.JWTConfig{Secret: "other-secret", Issuer: "lawnorm"})
	require.NoError(t, err)
	tok, err := other.Mint("ops", auth.RoleAdmin)
	require.NoError(t, err)

	_, err = newIssuer(t).Validate(tok.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssuer_ValidateRejectsWrongAudience(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "ops",
		Issuer:    "lawnorm",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Audience:  jwt.ClaimStrings{"refresh"},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newIssuer(t).Validate(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssuer_ValidateRejectsGarbage(t *testing.T) {
	_, err := newIssuer(t).Validate("not-a-token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
