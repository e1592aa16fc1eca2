package agentmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/appforge/appforge/internal/agent"
)

// MockRunner is a mock implementation of agent.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, req agent.Request) (*agent.Result, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*agent.Result)
	return r, args.Error(1)
}
