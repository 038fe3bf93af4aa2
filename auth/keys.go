package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-jose/go-jose/v4"

	"github.com/Crowley723/mattermost-update-notifier/config"
	"github.com/Crowley723/mattermost-update-notifier/utils"
)

var ErrKeyExists = errors.New("signing key already exists")

// GenerateSigningKey creates the ES256 keypair used to sign API tokens. An
// existing keypair is only replaced when force is set.
func GenerateSigningKey(cfg *config.Config, keyDir string, force bool) error {
	privatePath := cfg.API.SigningKeyPath(keyDir)
	publicPath := cfg.API.SigningPublicKeyPath(keyDir)

	if !force {
		if _, err := os.Stat(privatePath); err == nil {
			return fmt.Errorf("%w: %s", ErrKeyExists, privatePath)
		}
	}

	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("error generating signing key: %w", err)
	}

	signingKeyBytes, err := x509.MarshalPKCS8PrivateKey(signingKey)
	if err != nil {
		return fmt.Errorf("error marshalling private key: %w", err)
	}

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&signingKey.PublicKey)
	if err != nil {
		return fmt.Errorf("error marshalling public key: %w", err)
	}

	dir := keyDir
	if dir == "" {
		dir = cfg.API.KeyDir
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("unable to create key directory: %w", err)
	}

	if err := writePEMFile(privatePath, constPrivateKeyHeader, signingKeyBytes); err != nil {
		return fmt.Errorf("error writing private key file: %w", err)
	}

	if err := writePEMFile(publicPath, constPublicKeyHeader, publicKeyBytes); err != nil {
		return fmt.Errorf("error writing public key file: %w", err)
	}

	return nil
}

func LoadPrivateKey(path string) (any, error) {
	block, err := readPEMFile(path, constPrivateKeyHeader)
	if err != nil {
		return nil, err
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

func LoadPublicKey(path string) (any, error) {
	block, err := readPEMFile(path, constPublicKeyHeader)
	if err != nil {
		return nil, err
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// JWKS publishes the verification key so token consumers can validate
// signatures without access to the key directory.
func JWKS(publicKey any) (jose.JSONWebKeySet, error) {
	method, err := utils.SigningMethodForKey(publicKey)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}

	kid, err := utils.KeyID(publicKey)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}

	return jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       publicKey,
			KeyID:     kid,
			Algorithm: method.Alg(),
			Use:       "sig",
		}},
	}, nil
}

func readPEMFile(path, header string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM in %s", path)
	}
	if block.Type != header {
		return nil, fmt.Errorf("unexpected PEM block %q in %s", block.Type, path)
	}
	return block, nil
}

func writePEMFile(filePath, header string, value []byte) error {
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("error opening file for writing: %w", err)
	}

	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			slog.Error("error closing key file", "path", filePath, "err", err)
		}
	}(f)

	if err := pem.Encode(f, &pem.Block{Type: header, Bytes: value}); err != nil {
		return fmt.Errorf("error encoding key: %w", err)
	}

	return nil
}
