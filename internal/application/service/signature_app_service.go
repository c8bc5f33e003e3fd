// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/internal/domain/models"
	domainService "github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/internal/infrastructure/kms"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
	"github.com/turtacn/paytrust/pkg/logger"
	"github.com/turtacn/paytrust/pkg/utils"
)

// DetailUnknownClient is the Unauthorized detail for a client key with no registered credential.
const DetailUnknownClient = "Unknown Client"

var errNoGatewayKey = stderrors.New("gateway private key is not configured")

// SignatureAppService defines the interface for the signature application service
type SignatureAppService interface {
	// VerifyAccessTokenRequest checks the asymmetric signature of an access token request
	VerifyAccessTokenRequest(ctx context.Context, req *dto.AccessTokenSignatureRequest) error

	// VerifyTransactionRequest checks the symmetric signature of a transactional request
	VerifyTransactionRequest(ctx context.Context, req *dto.TransactionSignatureRequest) error

	// SignAsymmetric signs "<clientKey>|<timestamp>" with the gateway private key
	SignAsymmetric(ctx context.Context, req *dto.AsymmetricSignRequest) (*dto.SignatureResponse, error)

	// SignSymmetric signs a transactional request with the partner's client secret
	SignSymmetric(ctx context.Context, req *dto.TransactionSignatureRequest) (*dto.SignatureResponse, error)
}

// SignatureAppServiceConfig carries the optional collaborators of the service.
type SignatureAppServiceConfig struct {
	// Signer is the gateway's RSA signer. Nil disables SignAsymmetric.
	Signer *crypto.RSASigner
	// TimestampSkew bounds |now - X-TIMESTAMP| on verification. Zero disables the check.
	TimestampSkew time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// signatureAppServiceImpl is the concrete implementation of SignatureAppService
type signatureAppServiceImpl struct {
	keys    domainService.KeyResolver
	signer  *crypto.RSASigner
	audit   domainService.AuditService
	metrics domainService.Metrics
	skew    time.Duration
	now     func() time.Time
	tracer  trace.Tracer
	logger  logger.Logger
}

// NewSignatureAppService creates a new instance of SignatureAppService
func NewSignatureAppService(
	keys domainService.KeyResolver,
	audit domainService.AuditService,
	metrics domainService.Metrics,
	cfg SignatureAppServiceConfig,
	log logger.Logger,
) SignatureAppService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &signatureAppServiceImpl{
		keys:    keys,
		signer:  cfg.Signer,
		audit:   audit,
		metrics: metrics,
		skew:    cfg.TimestampSkew,
		now:     now,
		tracer:  otel.Tracer("paytrust/signature"),
		logger:  log.WithComponent("SignatureAppService"),
	}
}

// VerifyAccessTokenRequest implements access token request signature verification
func (s *signatureAppServiceImpl) VerifyAccessTokenRequest(ctx context.Context, req *dto.AccessTokenSignatureRequest) error {
	ctx, span := s.tracer.Start(ctx, "signature.verify_asymmetric",
		trace.WithAttributes(attribute.String("client_key", req.ClientKey)))
	defer span.End()
	start := time.Now()

	rerr := s.verifyAccessToken(ctx, req)
	s.recordVerification(ctx, span, constants.SchemeAsymmetric, req.ClientKey, "", constants.ServiceCodeAccessTokenB2B, time.Since(start), rerr)
	if rerr != nil {
		return rerr
	}
	return nil
}

func (s *signatureAppServiceImpl) verifyAccessToken(ctx context.Context, req *dto.AccessTokenSignatureRequest) *errors.ResponseError {
	// 1. Validate headers
	if rerr := utils.ValidateStruct(req); rerr != nil {
		return rerr
	}

	// 2. Check timestamp
	if _, rerr := crypto.CheckTimestamp(req.Timestamp, s.now(), s.skew); rerr != nil {
		return rerr
	}

	// 3. Resolve partner public key
	verifier, err := s.keys.Verifier(ctx, req.ClientKey)
	if err != nil {
		return keyResolutionError(err)
	}

	// 4. Verify
	payload := crypto.AsymmetricStringToSign(req.ClientKey, req.Timestamp)
	if err := verifier.VerifyBase64(req.Signature, payload); err != nil {
		return crypto.ToResponseError(err)
	}
	return nil
}

// VerifyTransactionRequest implements transactional request signature verification
func (s *signatureAppServiceImpl) VerifyTransactionRequest(ctx context.Context, req *dto.TransactionSignatureRequest) error {
	ctx, span := s.tracer.Start(ctx, "signature.verify_symmetric",
		trace.WithAttributes(attribute.String("partner_id", req.PartnerID), attribute.String("path", req.Path)))
	defer span.End()
	start := time.Now()

	rerr := s.verifyTransaction(ctx, req)
	s.recordVerification(ctx, span, constants.SchemeSymmetric, req.PartnerID, req.Path, req.ServiceCode, time.Since(start), rerr)
	if rerr != nil {
		return rerr
	}
	return nil
}

func (s *signatureAppServiceImpl) verifyTransaction(ctx context.Context, req *dto.TransactionSignatureRequest) *errors.ResponseError {
	if rerr := utils.ValidateStruct(req); rerr != nil {
		return rerr
	}
	if req.Signature == "" {
		return errors.InvalidMandatoryField(constants.HeaderSignature)
	}
	if _, rerr := crypto.CheckTimestamp(req.Timestamp, s.now(), s.skew); rerr != nil {
		return rerr
	}

	pool, err := s.keys.HMAC(ctx, req.PartnerID)
	if err != nil {
		return keyResolutionError(err)
	}

	payload, err := crypto.SymmetricStringToSign(req.Method, req.Path, bearerToken(req.AccessToken), req.Body, req.Timestamp)
	if err != nil {
		return crypto.ToResponseError(err)
	}
	if err := pool.Verify(req.Signature, payload); err != nil {
		return crypto.ToResponseError(err)
	}
	return nil
}

// SignAsymmetric implements the asymmetric signature utility
func (s *signatureAppServiceImpl) SignAsymmetric(ctx context.Context, req *dto.AsymmetricSignRequest) (*dto.SignatureResponse, error) {
	ctx, span := s.tracer.Start(ctx, "signature.sign_asymmetric")
	defer span.End()

	resp, rerr := s.signAsymmetric(req)
	s.recordSigning(ctx, span, constants.SchemeAsymmetric, req.ClientKey, rerr)
	if rerr != nil {
		return nil, rerr
	}
	return resp, nil
}

func (s *signatureAppServiceImpl) signAsymmetric(req *dto.AsymmetricSignRequest) (*dto.SignatureResponse, *errors.ResponseError) {
	if rerr := utils.ValidateStruct(req); rerr != nil {
		return nil, rerr
	}
	if _, rerr := crypto.CheckTimestamp(req.Timestamp, s.now(), 0); rerr != nil {
		return nil, rerr
	}
	if s.signer == nil {
		return nil, errors.InternalServerError().WithCause(errNoGatewayKey)
	}

	payload := crypto.AsymmetricStringToSign(req.ClientKey, req.Timestamp)
	signature, err := s.signer.SignAsBase64(payload)
	if err != nil {
		return nil, crypto.ToResponseError(err)
	}
	return &dto.SignatureResponse{Signature: signature, StringToSign: string(payload)}, nil
}

// SignSymmetric implements the symmetric signature utility
func (s *signatureAppServiceImpl) SignSymmetric(ctx context.Context, req *dto.TransactionSignatureRequest) (*dto.SignatureResponse, error) {
	ctx, span := s.tracer.Start(ctx, "signature.sign_symmetric")
	defer span.End()

	resp, rerr := s.signSymmetric(ctx, req)
	s.recordSigning(ctx, span, constants.SchemeSymmetric, req.PartnerID, rerr)
	if rerr != nil {
		return nil, rerr
	}
	return resp, nil
}

func (s *signatureAppServiceImpl) signSymmetric(ctx context.Context, req *dto.TransactionSignatureRequest) (*dto.SignatureResponse, *errors.ResponseError) {
	if rerr := utils.ValidateStruct(req); rerr != nil {
		return nil, rerr
	}
	if _, rerr := crypto.CheckTimestamp(req.Timestamp, s.now(), 0); rerr != nil {
		return nil, rerr
	}

	pool, err := s.keys.HMAC(ctx, req.PartnerID)
	if err != nil {
		return nil, keyResolutionError(err)
	}
	payload, err := crypto.SymmetricStringToSign(req.Method, req.Path, bearerToken(req.AccessToken), req.Body, req.Timestamp)
	if err != nil {
		return nil, crypto.ToResponseError(err)
	}
	return &dto.SignatureResponse{Signature: pool.Sign(payload), StringToSign: string(payload)}, nil
}

// ================================================================================
// Observability
// ================================================================================

func (s *signatureAppServiceImpl) recordVerification(
	ctx context.Context,
	span trace.Span,
	scheme constants.SignatureScheme,
	clientKey, path string,
	serviceCode uint8,
	elapsed time.Duration,
	rerr *errors.ResponseError,
) {
	kind := ""
	event := models.NewAuditEvent(constants.EventTypeSignatureVerified, constants.AuditResultSuccess, "signature verified").
		WithClient(clientKey, scheme).
		WithContextInfo(ipFromContext(ctx), span.SpanContext().TraceID().String())
	if path != "" {
		event.WithMetadata(map[string]string{"path": path})
	}

	if rerr == nil {
		event.WithOutcome(errors.SuccessCode(serviceCode, 0).String(), "")
		span.SetStatus(codes.Ok, "")
	} else {
		kind = rerr.Kind().String()
		eventType := constants.EventTypeSignatureRejected
		if rerr.HTTPStatus() >= 500 {
			eventType = constants.EventTypeKeyMaterialInvalid
		}
		event.EventType = eventType
		event.Result = constants.AuditResultFailure
		event.Message = rerr.Message()
		event.WithOutcome(rerr.Code(serviceCode).String(), kind)
		span.RecordError(rerr)
		span.SetStatus(codes.Error, rerr.Message())
		rerr.Traced(ctx, s.logger.WithFields(logger.Fields{"client_key": clientKey, "scheme": string(scheme)}))
	}

	s.metrics.RecordVerification(scheme, rerr == nil, elapsed, kind)
	s.logAudit(ctx, event)
}

func (s *signatureAppServiceImpl) recordSigning(ctx context.Context, span trace.Span, scheme constants.SignatureScheme, clientKey string, rerr *errors.ResponseError) {
	s.metrics.RecordSigning(scheme, rerr == nil)
	if rerr != nil {
		span.RecordError(rerr)
		span.SetStatus(codes.Error, rerr.Message())
		rerr.Traced(ctx, s.logger.WithFields(logger.Fields{"client_key": clientKey, "scheme": string(scheme)}))
		return
	}
	event := models.NewAuditEvent(constants.EventTypeSignatureIssued, constants.AuditResultSuccess, "signature issued").
		WithClient(clientKey, scheme).
		WithContextInfo(ipFromContext(ctx), span.SpanContext().TraceID().String())
	s.logAudit(ctx, event)
}

// logAudit never fails the request; a lost audit event is logged instead.
func (s *signatureAppServiceImpl) logAudit(ctx context.Context, event *models.AuditEvent) {
	if err := s.audit.LogEvent(ctx, *event); err != nil {
		s.logger.Warn(ctx, "Failed to record audit event", logger.Fields{
			"event_id":   event.EventID.String(),
			"event_type": string(event.EventType),
			"error":      err.Error(),
		})
	}
}

// ================================================================================
// Helpers
// ================================================================================

// keyResolutionError maps credential lookup failures onto the response taxonomy.
func keyResolutionError(err error) *errors.ResponseError {
	switch {
	case stderrors.Is(err, kms.ErrClientNotFound):
		return errors.Unauthorized(DetailUnknownClient).WithCause(err)
	case stderrors.Is(err, kms.ErrSchemeNotRegistered):
		return errors.Unauthorized(crypto.DetailSignature).WithCause(err)
	default:
		return crypto.ToResponseError(err)
	}
}

// bearerToken strips the "Bearer " scheme from an Authorization value.
func bearerToken(authorization string) string {
	const prefix = "Bearer "
	if len(authorization) > len(prefix) && strings.EqualFold(authorization[:len(prefix)], prefix) {
		return authorization[len(prefix):]
	}
	return authorization
}

func ipFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(constants.ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

//Personal.AI order the ending
