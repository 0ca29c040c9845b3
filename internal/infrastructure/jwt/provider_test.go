package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, expiry time.Duration) *Provider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &Provider{privateKey: key, publicKey: &key.PublicKey, expiry: expiry}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("u1", "s1")
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
}

func TestVerify_TamperedToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("u1", "s1")
	require.NoError(t, err)

	_, err = p.Verify(token + "x")
	assert.Error(t, err)
}

func TestVerify_WrongKey(t *testing.T) {
	signer := newTestProvider(t, time.Hour)
	verifier := newTestProvider(t, time.Hour)

	token, err := signer.Sign("u1", "s1")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_ExpiredToken(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	token, err := p.Sign("u1", "s1")
	require.NoError(t, err)

	_, err = p.Verify(token)
	assert.Error(t, err)
}
