package utils

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethodForKey maps a private or public key to the JWS algorithm used with it.
func SigningMethodForKey(key any) (jwt.SigningMethod, error) {
	switch key.(type) {
	case *ecdsa.PrivateKey, *ecdsa.PublicKey:
		return jwt.SigningMethodES256, nil
	case *rsa.PrivateKey, *rsa.PublicKey:
		return jwt.SigningMethodRS256, nil
	case ed25519.PrivateKey, ed25519.PublicKey:
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("unsupported key type %T", key)
	}
}

// KeyID derives a short stable identifier from a public key.
func KeyID(pubKey any) (string, error) {
	pubKeyBytes, err := x509.MarshalPKIXPublicKey(pubKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	hash := sha256.Sum256(pubKeyBytes)
	return hex.EncodeToString(hash[:])[:16], nil
}
