package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawnorm/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendRunSummary(ctx context.Context, run *domain.ProcessingRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}
