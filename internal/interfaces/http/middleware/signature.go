package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/paytrust/internal/application/dto"
	appservice "github.com/turtacn/paytrust/internal/application/service"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
)

// DefaultMaxBodyBytes bounds the request body read for the symmetric string to sign.
const DefaultMaxBodyBytes int64 = 1 << 20

// AccessTokenSignature returns a Gin middleware that verifies the asymmetric
// signature of an access token request (X-CLIENT-KEY, X-TIMESTAMP, X-SIGNATURE).
// On success the client key is stored under constants.ContextKeyClientID.
// AccessTokenSignature 返回验证访问令牌请求非对称签名的 Gin 中间件。
func AccessTokenSignature(svc appservice.SignatureAppService, serviceCode uint8) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &dto.AccessTokenSignatureRequest{
			ClientKey: c.GetHeader(constants.HeaderClientKey),
			Timestamp: c.GetHeader(constants.HeaderTimestamp),
			Signature: c.GetHeader(constants.HeaderSignature),
		}
		if err := svc.VerifyAccessTokenRequest(c.Request.Context(), req); err != nil {
			dto.AbortWithError(c, err, serviceCode)
			return
		}
		c.Set(string(constants.ContextKeyClientID), req.ClientKey)
		c.Next()
	}
}

// TransactionSignature returns a Gin middleware that verifies the symmetric
// signature of a transactional request. The body is read once, bounded by
// maxBody, and restored for the handler.
// TransactionSignature 返回验证交易请求对称签名的 Gin 中间件，请求体读取后会还原供后续处理使用。
func TransactionSignature(svc appservice.SignatureAppService, serviceCode uint8, maxBody int64) gin.HandlerFunc {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		body, err := readBody(c, maxBody)
		if err != nil {
			dto.AbortWithError(c, err, serviceCode)
			return
		}

		req := &dto.TransactionSignatureRequest{
			PartnerID:   c.GetHeader(constants.HeaderPartnerID),
			Method:      c.Request.Method,
			Path:        c.Request.URL.RequestURI(),
			AccessToken: c.GetHeader(constants.HeaderAuthorization),
			Timestamp:   c.GetHeader(constants.HeaderTimestamp),
			Body:        body,
			Signature:   c.GetHeader(constants.HeaderSignature),
			ServiceCode: serviceCode,
		}
		if err := svc.VerifyTransactionRequest(c.Request.Context(), req); err != nil {
			dto.AbortWithError(c, err, serviceCode)
			return
		}
		c.Set(string(constants.ContextKeyClientID), req.PartnerID)
		c.Next()
	}
}

func readBody(c *gin.Context, maxBody int64) ([]byte, *errors.ResponseError) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody+1))
	_ = c.Request.Body.Close()
	if err != nil {
		return nil, errors.BadRequest().WithCause(err)
	}
	if int64(len(body)) > maxBody {
		return nil, errors.InvalidFieldFormat("body")
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
