package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privDER := x509.MarshalPKCS1PrivateKey(key)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := NewAuthService(privPEM, pubPEM, time.Minute, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateTokenPair("profile-1", true)
	require.NoError(t, err)

	access, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", access.ProfileID)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.True(t, access.MustChangePassword)

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEmpty(t, refresh.ID)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t)

	pair, err := other.GenerateTokenPair("profile-1", false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)
}

func TestGenerateTokenPairRequiresProfile(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GenerateTokenPair("", false)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	pw, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, pw, 16)

	hash, err := HashPassword(pw)
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash(pw, hash))
	assert.False(t, CheckPasswordHash(pw+"x", hash))
}

func TestValidateTokenRejectsWrongIssuerAndMismatchedSubject(t *testing.T) {
	svc := newTestService(t)
	now := time.Now()

	foreign, err := svc.signClaims(TokenClaims{
		ProfileID: "profile-1",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "profile-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	mismatched, err := svc.signClaims(TokenClaims{
		ProfileID: "profile-1",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "profile-2",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})
	require.NoError(t, err)
	_, err = svc.ValidateToken(mismatched)
	assert.Error(t, err)

	noExpiry, err := svc.signClaims(TokenClaims{
		ProfileID:        "profile-1",
		TokenType:        TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "profile-1"},
	})
	require.NoError(t, err)
	_, err = svc.ValidateToken(noExpiry)
	assert.Error(t, err)
}
