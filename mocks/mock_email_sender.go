package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	args := m.Called(ctx, toEmail, toName, token)
	return args.Error(0)
}
