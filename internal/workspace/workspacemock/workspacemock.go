package workspacemock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAccessor is a mock implementation of workspace.Accessor.
type MockAccessor struct {
	mock.Mock
}

func (m *MockAccessor) Create(ctx context.Context, projectName string) (string, error) {
	args := m.Called(ctx, projectName)
	return args.String(0), args.Error(1)
}

func (m *MockAccessor) Verify(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
