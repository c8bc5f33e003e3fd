package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// RSASigner produces RSASSA-PKCS1-v1_5 SHA-256 signatures with a private key.
// Signing is serialised, so one RSASigner can be shared between goroutines.
type RSASigner struct {
	mu  sync.Mutex
	key *rsa.PrivateKey
}

// NewRSASigner loads a PEM private key (PKCS#8, or legacy PKCS#1). Any failure
// yields ErrInvalidPEMSecretKey.
func NewRSASigner(privateKeyPEM string) (*RSASigner, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, ErrInvalidPEMSecretKey
	}
	if err := key.Validate(); err != nil {
		return nil, ErrInvalidPEMSecretKey
	}
	return &RSASigner{key: key}, nil
}

// SignAsBase64 signs the SHA-256 digest of payload and returns standard base64.
// PKCS#1 v1.5 is deterministic: equal payloads give equal signatures.
func (s *RSASigner) SignAsBase64(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)

	s.mu.Lock()
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, stdcrypto.SHA256, digest[:])
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// PublicKey returns the public half of the signing key.
func (s *RSASigner) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}
