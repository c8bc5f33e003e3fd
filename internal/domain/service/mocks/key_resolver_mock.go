package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
)

type MockKeyResolver struct {
	mock.Mock
}

func (m *MockKeyResolver) Verifier(ctx context.Context, clientKey string) (*crypto.RSAVerifier, error) {
	args := m.Called(ctx, clientKey)
	if v := args.Get(0); v != nil {
		return v.(*crypto.RSAVerifier), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockKeyResolver) HMAC(ctx context.Context, clientKey string) (*crypto.HMACPool, error) {
	args := m.Called(ctx, clientKey)
	if v := args.Get(0); v != nil {
		return v.(*crypto.HMACPool), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockExternalIDGuard struct {
	mock.Mock
}

func (m *MockExternalIDGuard) Reserve(ctx context.Context, partnerID, externalID string) (bool, error) {
	args := m.Called(ctx, partnerID, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockExternalIDGuard) Release(ctx context.Context, partnerID, externalID string) error {
	args := m.Called(ctx, partnerID, externalID)
	return args.Error(0)
}
