package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
	"github.com/turtacn/paytrust/pkg/logger"
)

// maxExternalIDLength bounds X-EXTERNAL-ID, which SNAP defines as up to 36 characters.
const maxExternalIDLength = 36

// ExternalIDMiddleware returns a Gin middleware that rejects replayed transactional requests.
// X-EXTERNAL-ID must be unique per partner per day: a missing header is an
// InvalidMandatoryField, a reused one a Conflict (409).
// A request answered with a 4xx or 5xx gives its id back, so only accepted
// requests consume one.
// It must run after TransactionSignature so X-PARTNER-ID is already authenticated.
// ExternalIDMiddleware 返回一个 Gin 中间件以拒绝重放的交易请求。
// X-EXTERNAL-ID 在同一合作方同一天内必须唯一：缺失时返回 InvalidMandatoryField，重复时返回 Conflict (409)。
func ExternalIDMiddleware(guard service.ExternalIDGuard, metrics service.Metrics, serviceCode uint8, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := strings.TrimSpace(c.GetHeader(constants.HeaderExternalID))
		if externalID == "" {
			dto.AbortWithError(c, errors.InvalidMandatoryField(constants.HeaderExternalID), serviceCode)
			return
		}
		if len(externalID) > maxExternalIDLength {
			dto.AbortWithError(c, errors.InvalidFieldFormat(constants.HeaderExternalID), serviceCode)
			return
		}

		partnerID := c.GetString(string(constants.ContextKeyClientID))
		if partnerID == "" {
			partnerID = c.GetHeader(constants.HeaderPartnerID)
		}

		isNew, err := guard.Reserve(c.Request.Context(), partnerID, externalID)
		if err != nil {
			log.Error(c.Request.Context(), "External ID check failed", err, logger.Fields{
				"partner_id":  partnerID,
				"external_id": externalID,
			})
			c.Next() // Fail open: If Redis is down, we allow the request to proceed.
			return
		}

		if !isNew {
			log.Warn(c.Request.Context(), "Replay detected: X-EXTERNAL-ID has already been used today", logger.Fields{
				"partner_id":  partnerID,
				"external_id": externalID,
			})
			metrics.RecordDuplicateExternalID()
			dto.AbortWithError(c, errors.Conflict(), serviceCode)
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusBadRequest {
			return
		}
		// 客户端可能已断开，释放操作不随请求取消
		ctx := context.WithoutCancel(c.Request.Context())
		if err := guard.Release(ctx, partnerID, externalID); err != nil {
			log.Warn(ctx, "Failed to release X-EXTERNAL-ID of a rejected request", logger.Fields{
				"partner_id":  partnerID,
				"external_id": externalID,
				"status":      c.Writer.Status(),
				"error":       err.Error(),
			})
		}
	}
}
