package vcsmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/appforge/appforge/internal/vcs"
)

// MockCommitter is a mock implementation of vcs.Committer.
type MockCommitter struct {
	mock.Mock
}

func (m *MockCommitter) Identity(ctx context.Context, workspacePath string) (*vcs.Identity, error) {
	args := m.Called(ctx, workspacePath)
	id, _ := args.Get(0).(*vcs.Identity)
	return id, args.Error(1)
}

func (m *MockCommitter) EnsureRepo(ctx context.Context, workspacePath string) error {
	args := m.Called(ctx, workspacePath)
	return args.Error(0)
}

func (m *MockCommitter) CommitAll(ctx context.Context, workspacePath, message string) error {
	args := m.Called(ctx, workspacePath, message)
	return args.Error(0)
}
