package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thelyst/internal/config"
	"github.com/thelyst/internal/domain"
)

func writeKeys(t *testing.T) *config.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private_key.pem")
	pubPath := filepath.Join(dir, "public_key.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o600))

	return &config.Config{JWTPrivateKeyPath: privPath, JWTPublicKeyPath: pubPath}
}

func testUser() *domain.User {
	return &domain.User{UserID: "01HUSER", Email: "a@b.com", EmailVerified: true}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p, err := NewProvider(writeKeys(t))
	require.NoError(t, err)

	tok, exp, err := p.Sign(testUser(), "sess-1", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "01HUSER", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestVerify_Expired(t *testing.T) {
	p, err := NewProvider(writeKeys(t))
	require.NoError(t, err)
	p.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	tok, _, err := p.Sign(testUser(), "sess-1", time.Hour)
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_WrongKey(t *testing.T) {
	signer, err := NewProvider(writeKeys(t))
	require.NoError(t, err)
	verifier, err := NewProvider(writeKeys(t))
	require.NoError(t, err)

	tok, _, err := signer.Sign(testUser(), "sess-1", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_RejectsHMAC(t *testing.T) {
	p, err := NewProvider(writeKeys(t))
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID:        "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerify_Garbage(t *testing.T) {
	p, err := NewProvider(writeKeys(t))
	require.NoError(t, err)

	_, err = p.Verify("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTPrivateKeyPath: "/nonexistent/key.pem"})
	assert.ErrorContains(t, err, "read private key")
}
