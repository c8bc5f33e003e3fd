package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"
)

// signatureEncoding rejects non-zero padding bits, so every signature has exactly one text form.
var signatureEncoding = base64.StdEncoding.Strict()

// HMACSigner signs and verifies payloads with HMAC-SHA512 over one shared secret.
//
// An HMACSigner owns a single MAC state and is not safe for concurrent use.
// Share signers across goroutines through an HMACPool.
type HMACSigner struct {
	mac hash.Hash
}

// NewHMACSigner creates a signer for secret. An empty secret is rejected.
func NewHMACSigner(secret []byte) (*HMACSigner, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidSecretLength
	}
	return &HMACSigner{mac: hmac.New(sha512.New, secret)}, nil
}

// NewHMACSignerFromString is NewHMACSigner for a UTF-8 secret.
func NewHMACSignerFromString(secret string) (*HMACSigner, error) {
	return NewHMACSigner([]byte(secret))
}

// Sign returns the standard base64 HMAC-SHA512 of payload.
func (s *HMACSigner) Sign(payload []byte) string {
	return base64.StdEncoding.EncodeToString(s.sum(payload))
}

// Verify checks signatureB64 against payload in constant time.
func (s *HMACSigner) Verify(signatureB64 string, payload []byte) error {
	expected := s.sum(payload)

	got, err := decodeSignature(signatureB64)
	if err != nil {
		return err
	}
	if !hmac.Equal(got, expected) {
		return ErrSignatureVerificationFailedSymmetric
	}
	return nil
}

// decodeSignature decodes standard padded base64. Line breaks are refused: the
// stdlib decoder would otherwise skip them and accept a second spelling.
func decodeSignature(signatureB64 string) ([]byte, error) {
	if strings.ContainsAny(signatureB64, "\r\n") {
		return nil, ErrBadSignatureFormat
	}
	raw, err := signatureEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, ErrBadSignatureFormat
	}
	return raw, nil
}

// sum leaves the MAC reset, so the next call starts from the keyed initial state.
func (s *HMACSigner) sum(payload []byte) []byte {
	s.mac.Reset()
	s.mac.Write(payload)
	out := s.mac.Sum(nil)
	s.mac.Reset()
	return out
}

// SignOnce signs payload with a throwaway signer.
func SignOnce(secret string, payload []byte) (string, error) {
	s, err := NewHMACSignerFromString(secret)
	if err != nil {
		return "", err
	}
	return s.Sign(payload), nil
}
