package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/paytrust/internal/application/dto"
	appservice "github.com/turtacn/paytrust/internal/application/service"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
)

// Headers of the symmetric signature utility naming the request being signed.
const (
	HeaderHTTPMethod  = "HttpMethod"
	HeaderEndpointURL = "EndpointUrl"
)

// SignatureHandler serves the signature utility endpoints partners use to
// check their integration.
type SignatureHandler struct {
	svc     appservice.SignatureAppService
	maxBody int64
}

// NewSignatureHandler creates a new SignatureHandler.
func NewSignatureHandler(svc appservice.SignatureAppService) *SignatureHandler {
	return &SignatureHandler{svc: svc, maxBody: 1 << 20}
}

// SignatureAuth godoc
// @Summary      Asymmetric signature utility
// @Description  Signs "<X-CLIENT-KEY>|<X-TIMESTAMP>" with the gateway private key.
// @Tags         utilities
// @Produce      json
// @Router       /api/v1.0/utilities/signature-auth [post]
func (h *SignatureHandler) SignatureAuth(c *gin.Context) {
	req := &dto.AsymmetricSignRequest{
		ClientKey: c.GetHeader(constants.HeaderClientKey),
		Timestamp: c.GetHeader(constants.HeaderTimestamp),
	}
	resp, err := h.svc.SignAsymmetric(c.Request.Context(), req)
	if err != nil {
		dto.SendError(c, err, constants.ServiceCodeSignatureUtility)
		return
	}
	dto.SendSuccess(c, *resp, constants.ServiceCodeSignatureUtility)
}

// SignatureService godoc
// @Summary      Symmetric signature utility
// @Description  Signs the request described by HttpMethod, EndpointUrl, Authorization, X-TIMESTAMP and the body with the partner's client secret.
// @Tags         utilities
// @Produce      json
// @Router       /api/v1.0/utilities/signature-service [post]
func (h *SignatureHandler) SignatureService(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBody+1))
	if err != nil {
		dto.SendError(c, errors.BadRequest().WithCause(err), constants.ServiceCodeSignatureUtility)
		return
	}
	if int64(len(body)) > h.maxBody {
		dto.SendError(c, errors.InvalidFieldFormat("body"), constants.ServiceCodeSignatureUtility)
		return
	}

	req := &dto.TransactionSignatureRequest{
		PartnerID:   c.GetHeader(constants.HeaderPartnerID),
		Method:      c.GetHeader(HeaderHTTPMethod),
		Path:        c.GetHeader(HeaderEndpointURL),
		AccessToken: c.GetHeader(constants.HeaderAuthorization),
		Timestamp:   c.GetHeader(constants.HeaderTimestamp),
		Body:        body,
	}
	resp, err := h.svc.SignSymmetric(c.Request.Context(), req)
	if err != nil {
		dto.SendError(c, err, constants.ServiceCodeSignatureUtility)
		return
	}
	dto.SendSuccess(c, *resp, constants.ServiceCodeSignatureUtility)
}

// VerifySignature answers a request that already passed one of the signature
// middlewares. It echoes the authenticated client key.
func (h *SignatureHandler) VerifySignature(c *gin.Context) {
	dto.SendSuccess(c, VerifiedClient{ClientKey: c.GetString(string(constants.ContextKeyClientID))}, constants.ServiceCodeSignatureUtility)
}

// VerifiedClient is the payload of VerifySignature.
type VerifiedClient struct {
	ClientKey string `json:"clientKey"`
}

// NoRoute answers unknown paths with a NotFound envelope.
func NoRoute(c *gin.Context) {
	dto.SendError(c, errors.RequestedFunctionIsNotSupported(), constants.ServiceCodeGeneric)
}

