package utils

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigningMethodForKey(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	edPub, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  any
		want jwt.SigningMethod
	}{
		{"ecdsa private", ecKey, jwt.SigningMethodES256},
		{"ecdsa public", &ecKey.PublicKey, jwt.SigningMethodES256},
		{"ed25519 private", edKey, jwt.SigningMethodEdDSA},
		{"ed25519 public", edPub, jwt.SigningMethodEdDSA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SigningMethodForKey(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Alg(), got.Alg())
		})
	}

	_, err = SigningMethodForKey("not a key")
	assert.Error(t, err)
}

func TestKeyIDIsStable(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	first, err := KeyID(&key.PublicKey)
	require.NoError(t, err)
	second, err := KeyID(&key.PublicKey)
	require.NoError(t, err)
	third, err := KeyID(&other.PublicKey)
	require.NoError(t, err)

	assert.Len(t, first, 16)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, third)
}

func TestGetHostnamePrefersEnvironment(t *testing.T) {
	t.Setenv("HOSTNAME", "notifier-0")
	assert.Equal(t, "notifier-0", GetHostname())
}
