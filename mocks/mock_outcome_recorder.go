package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockOutcomeRecorder is a mock implementation of llmextract.OutcomeRecorder.
type MockOutcomeRecorder struct {
	mock.Mock
}

func (m *MockOutcomeRecorder) RecordOutcome(ctx context.Context, signature string, success bool) error {
	args := m.Called(ctx, signature, success)
	return args.Error(0)
}
