package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/paytrust/pkg/constants"
)

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordVerification(scheme constants.SignatureScheme, success bool, duration time.Duration, errorKind string) {
	m.Called(scheme, success, duration, errorKind)
}

func (m *MockMetrics) RecordSigning(scheme constants.SignatureScheme, success bool) {
	m.Called(scheme, success)
}

func (m *MockMetrics) RecordResponse(status int, category string) {
	m.Called(status, category)
}

func (m *MockMetrics) RecordDuplicateExternalID() {
	m.Called()
}
