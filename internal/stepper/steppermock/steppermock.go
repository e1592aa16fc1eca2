package steppermock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/appforge/appforge/internal/stepper"
)

// MockExecutor is a mock implementation of stepper.Executor.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req stepper.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
