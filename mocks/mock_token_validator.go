package mocks

import (
	"github.com/stretchr/testify/mock"

	"lawnorm/internal/auth"
)

// MockTokenValidator is a mock implementation of middleware.TokenValidator.
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}
