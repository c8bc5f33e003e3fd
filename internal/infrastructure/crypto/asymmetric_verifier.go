package crypto

import (
	stdcrypto "crypto"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/golang-jwt/jwt/v5"
)

// RSAVerifier checks RSASSA-PKCS1-v1_5 SHA-256 signatures. It is immutable and
// safe for concurrent use.
type RSAVerifier struct {
	key *rsa.PublicKey
}

// NewRSAVerifier loads a PEM public key (SubjectPublicKeyInfo or PKCS#1).
// Any failure yields ErrInvalidPEMPublicKey.
func NewRSAVerifier(publicKeyPEM string) (*RSAVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, ErrInvalidPEMPublicKey
	}
	return &RSAVerifier{key: key}, nil
}

// NewRSAVerifierFromKey wraps an already parsed key.
func NewRSAVerifierFromKey(key *rsa.PublicKey) *RSAVerifier {
	return &RSAVerifier{key: key}
}

// VerifyBase64 checks a base64 signature over payload.
func (v *RSAVerifier) VerifyBase64(signatureB64 string, payload []byte) error {
	sig, err := decodeSignature(signatureB64)
	if err != nil {
		return err
	}
	if len(sig) != v.key.Size() {
		return ErrBadSignatureFormat
	}

	digest := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(v.key, stdcrypto.SHA256, digest[:], sig); err != nil {
		return ErrSignatureVerificationFailedAsymmetric
	}
	return nil
}
