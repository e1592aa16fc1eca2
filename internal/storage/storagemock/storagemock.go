package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage"
)

// MockRepository is a mock implementation of storage.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateBuild(ctx context.Context, b model.Build) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) GetBuild(ctx context.Context, id string) (*model.Build, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*model.Build)
	return b, args.Error(1)
}

func (m *MockRepository) ListBuilds(ctx context.Context) ([]model.Build, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]model.Build)
	return b, args.Error(1)
}

func (m *MockRepository) UpdateBuild(ctx context.Context, b model.Build) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) CreatePrompts(ctx context.Context, prompts []model.Prompt) error {
	args := m.Called(ctx, prompts)
	return args.Error(0)
}

func (m *MockRepository) ListPrompts(ctx context.Context, projectID string, filter storage.PromptFilter) ([]model.Prompt, error) {
	args := m.Called(ctx, projectID, filter)
	p, _ := args.Get(0).([]model.Prompt)
	return p, args.Error(1)
}

func (m *MockRepository) CompletePromptStep(ctx context.Context, buildID, promptID string) error {
	args := m.Called(ctx, buildID, promptID)
	return args.Error(0)
}

func (m *MockRepository) AppendEvent(ctx context.Context, e model.ProgressEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) ListEvents(ctx context.Context, buildID string, limit int) ([]model.ProgressEvent, error) {
	args := m.Called(ctx, buildID, limit)
	e, _ := args.Get(0).([]model.ProgressEvent)
	return e, args.Error(1)
}
