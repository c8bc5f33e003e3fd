package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AsymmetricTestSuite struct {
	suite.Suite
	privatePEM string
	publicPEM  string
	pkcs1PEM   string
	signer     *RSASigner
	verifier   *RSAVerifier
}

func (s *AsymmetricTestSuite) SetupSuite() {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	s.Require().NoError(err)
	s.privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	s.Require().NoError(err)
	s.publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
	s.pkcs1PEM = string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)}))

	s.signer, err = NewRSASigner(s.privatePEM)
	s.Require().NoError(err)
	s.verifier, err = NewRSAVerifier(s.publicPEM)
	s.Require().NoError(err)
}

func (s *AsymmetricTestSuite) TestSignVerifyRoundTrip() {
	payload := AsymmetricStringToSign("partner-A", "2024-01-02T15:04:05+07:00")

	sig, err := s.signer.SignAsBase64(payload)
	s.Require().NoError(err)

	again, err := s.signer.SignAsBase64(payload)
	s.Require().NoError(err)
	s.Equal(sig, again, "PKCS#1 v1.5 signatures are deterministic")

	s.NoError(s.verifier.VerifyBase64(sig, payload))

	pkcs1, err := NewRSAVerifier(s.pkcs1PEM)
	s.Require().NoError(err)
	s.NoError(pkcs1.VerifyBase64(sig, payload))

	s.NoError(NewRSAVerifierFromKey(s.signer.PublicKey()).VerifyBase64(sig, payload))
}

func (s *AsymmetricTestSuite) TestTamperDetection() {
	payload := []byte("partner-A|2024-01-02T15:04:05+07:00")
	sig, err := s.signer.SignAsBase64(payload)
	s.Require().NoError(err)
	raw, _ := base64.StdEncoding.DecodeString(sig)

	tampered := append([]byte(nil), payload...)
	tampered[0] ^= 0x01
	s.ErrorIs(s.verifier.VerifyBase64(sig, tampered), ErrSignatureVerificationFailedAsymmetric)

	for _, i := range []int{0, len(raw) / 2, len(raw) - 1} {
		bad := append([]byte(nil), raw...)
		bad[i] ^= 0x01
		s.ErrorIs(s.verifier.VerifyBase64(base64.StdEncoding.EncodeToString(bad), payload),
			ErrSignatureVerificationFailedAsymmetric, "signature byte %d", i)
	}
}

func (s *AsymmetricTestSuite) TestBadSignatureFormat() {
	s.ErrorIs(s.verifier.VerifyBase64("not-base64!!", []byte("x")), ErrBadSignatureFormat)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	s.ErrorIs(s.verifier.VerifyBase64(short, []byte("x")), ErrBadSignatureFormat)

	payload := []byte("partner-A|2024-01-02T15:04:05+07:00")
	sig, err := s.signer.SignAsBase64(payload)
	s.Require().NoError(err)
	s.Require().NoError(s.verifier.VerifyBase64(sig, payload))
	s.ErrorIs(s.verifier.VerifyBase64(flipPaddingBit(s.T(), sig), payload), ErrBadSignatureFormat)
	s.ErrorIs(s.verifier.VerifyBase64(sig[:64]+"\n"+sig[64:], payload), ErrBadSignatureFormat)
	s.ErrorIs(s.verifier.VerifyBase64(sig[:64]+"\r\n"+sig[64:], payload), ErrBadSignatureFormat)

	re := ToResponseError(s.verifier.VerifyBase64(short, []byte("x")))
	s.Equal(http.StatusUnauthorized, re.HTTPStatus())
	s.Equal("Unauthorized. Signature", re.Error())
}

func (s *AsymmetricTestSuite) TestInvalidPrivateKey() {
	input := "this is definitely not a PEM document"
	_, err := NewRSASigner(input)
	s.ErrorIs(err, ErrInvalidPEMSecretKey)

	re := ToResponseError(err)
	s.Equal(http.StatusInternalServerError, re.HTTPStatus())
	s.Equal("5000001", re.Code(0).String())
	s.NotContains(re.Error(), input)
	s.NotContains(err.Error(), input)

	// a public key is not a private key
	_, err = NewRSASigner(s.publicPEM)
	s.ErrorIs(err, ErrInvalidPEMSecretKey)

	// PKCS#8 wrapping a non-RSA key
	ec, genErr := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(genErr)
	der, mErr := x509.MarshalPKCS8PrivateKey(ec)
	s.Require().NoError(mErr)
	_, err = NewRSASigner(string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})))
	s.ErrorIs(err, ErrInvalidPEMSecretKey)
}

func (s *AsymmetricTestSuite) TestInvalidPublicKey() {
	_, err := NewRSAVerifier("garbage")
	s.ErrorIs(err, ErrInvalidPEMPublicKey)

	_, err = NewRSAVerifier(s.privatePEM)
	s.ErrorIs(err, ErrInvalidPEMPublicKey)
}

func (s *AsymmetricTestSuite) TestConcurrentSigning() {
	payload := []byte("concurrent")
	ref, err := s.signer.SignAsBase64(payload)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig, err := s.signer.SignAsBase64(payload)
			s.NoError(err)
			s.Equal(ref, sig)
			s.NoError(s.verifier.VerifyBase64(sig, payload))
		}()
	}
	wg.Wait()
}

func TestAsymmetricTestSuite(t *testing.T) {
	suite.Run(t, new(AsymmetricTestSuite))
}
