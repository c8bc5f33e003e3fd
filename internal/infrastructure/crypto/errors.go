package crypto

import (
	stderrors "errors"

	"github.com/turtacn/paytrust/pkg/errors"
)

// Failures of the signing primitives. Key loading errors are opaque: they never
// carry the offending input or the parser's message.
var (
	ErrInvalidSecretLength                   = stderrors.New("crypto: secret must not be empty")
	ErrInvalidPEMSecretKey                   = stderrors.New("crypto: invalid PEM private key")
	ErrInvalidPEMPublicKey                   = stderrors.New("crypto: invalid PEM public key")
	ErrBadSignatureFormat                    = stderrors.New("crypto: bad signature format")
	ErrSignatureVerificationFailedSymmetric  = stderrors.New("crypto: symmetric signature verification failed")
	ErrSignatureVerificationFailedAsymmetric = stderrors.New("crypto: asymmetric signature verification failed")
	ErrMalformedRequestBody                  = stderrors.New("crypto: request body is not valid JSON")
)

// Unauthorized details used when a signature check fails.
const (
	DetailSignature          = "Signature"
	DetailVerifyClientSecret = "Verify Client Secret Fail."
)

// ToResponseError maps a crypto failure onto the response taxonomy.
// Signature problems are the caller's fault (401); broken key material is ours (500).
func ToResponseError(err error) *errors.ResponseError {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, ErrBadSignatureFormat),
		stderrors.Is(err, ErrSignatureVerificationFailedAsymmetric):
		return errors.Unauthorized(DetailSignature).WithCause(err)
	case stderrors.Is(err, ErrSignatureVerificationFailedSymmetric):
		return errors.Unauthorized(DetailVerifyClientSecret).WithCause(err)
	case stderrors.Is(err, ErrInvalidPEMSecretKey),
		stderrors.Is(err, ErrInvalidPEMPublicKey),
		stderrors.Is(err, ErrInvalidSecretLength):
		return errors.InternalServerError().WithCause(err)
	case stderrors.Is(err, ErrMalformedRequestBody):
		return errors.InvalidFieldFormat("body").WithCause(err)
	default:
		return errors.FromError(err)
	}
}
