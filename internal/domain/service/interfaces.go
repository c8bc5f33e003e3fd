// Package service defines the interfaces for domain services.
package service

import (
	"context"
	"time"

	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/pkg/constants"
)

//go:generate mockery --name AuditService --output mocks --outpkg mocks
// AuditService records audit events of the signature layer.
// AuditService 记录签名层的审计事件。
type AuditService interface {
	// LogEvent persists or publishes one event.
	// LogEvent 持久化或发布一个审计事件。
	LogEvent(ctx context.Context, event models.AuditEvent) error
}

//go:generate mockery --name KeyResolver --output mocks --outpkg mocks
// KeyResolver resolves the verification material registered for a partner.
// KeyResolver 解析合作方注册的验签密钥材料。
type KeyResolver interface {
	// Verifier returns the RSA verifier for access token request signatures.
	// Verifier 返回用于访问令牌请求签名的 RSA 验签器。
	Verifier(ctx context.Context, clientKey string) (*crypto.RSAVerifier, error)

	// HMAC returns the HMAC pool for transactional request signatures.
	// HMAC 返回用于交易请求签名的 HMAC 池。
	HMAC(ctx context.Context, clientKey string) (*crypto.HMACPool, error)
}

//go:generate mockery --name ExternalIDGuard --output mocks --outpkg mocks
// ExternalIDGuard enforces X-EXTERNAL-ID uniqueness per partner per day.
// ExternalIDGuard 保证 X-EXTERNAL-ID 在同一合作方同一天内唯一。
type ExternalIDGuard interface {
	// Reserve claims the id and reports false when it was already used.
	// Reserve 占用该 ID，若已被使用则返回 false。
	Reserve(ctx context.Context, partnerID, externalID string) (bool, error)

	// Release frees a reservation whose request was rejected.
	// Release 释放被拒绝请求占用的 ID。
	Release(ctx context.Context, partnerID, externalID string) error
}

// Metrics defines the interface for collecting signature metrics.
// Metrics 定义了收集签名指标的接口。
type Metrics interface {
	// RecordVerification records the outcome and latency of one signature check.
	// RecordVerification 记录一次验签的结果与耗时。
	RecordVerification(scheme constants.SignatureScheme, success bool, duration time.Duration, errorKind string)

	// RecordSigning records one signature produced by the gateway.
	// RecordSigning 记录一次网关签名。
	RecordSigning(scheme constants.SignatureScheme, success bool)

	// RecordResponse records the response code category of one API call.
	// RecordResponse 记录一次 API 调用的响应类别。
	RecordResponse(status int, category string)

	// RecordDuplicateExternalID records a replayed X-EXTERNAL-ID.
	// RecordDuplicateExternalID 记录一次重复的 X-EXTERNAL-ID。
	RecordDuplicateExternalID()
}
