package auth

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/utils"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken issues a bearer token for the status API.
func GenerateToken(cfg *config.Config, subject string, expiry time.Duration) (string, error) {
	key, err := LoadPrivateKey(cfg.API.SigningKeyPath(""))
	if err != nil {
		return "", err
	}
	return SignToken(key, cfg.API.Audience, subject, expiry)
}

func SignToken(key any, audience, subject string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = constDefaultExpiry * time.Second
	}

	signingMethod, err := utils.SigningMethodForKey(key)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constIssuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	if pub, ok := publicOf(key); ok {
		if kid, err := utils.KeyID(pub); err == nil {
			token.Header["kid"] = kid
		}
	}

	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verifier checks bearer tokens against a single public key.
type Verifier struct {
	key      any
	method   jwt.SigningMethod
	audience string
}

func NewVerifier(publicKey any, audience string) (*Verifier, error) {
	method, err := utils.SigningMethodForKey(publicKey)
	if err != nil {
		return nil, err
	}
	return &Verifier{key: publicKey, method: method, audience: audience}, nil
}

// LoadVerifier reads the configured public key.
func LoadVerifier(cfg *config.Config) (*Verifier, error) {
	key, err := LoadPublicKey(cfg.API.SigningPublicKeyPath(""))
	if err != nil {
		return nil, err
	}
	return NewVerifier(key, cfg.API.Audience)
}

func (v *Verifier) PublicKey() any {
	return v.key
}

func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(constIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func publicOf(key any) (crypto.PublicKey, bool) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, false
	}
	return signer.Public(), true
}
