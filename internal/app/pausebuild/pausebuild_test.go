package pausebuild_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/app/pausebuild"
	"github.com/appforge/appforge/internal/eventlog/eventlogmock"
	"github.com/appforge/appforge/internal/log"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config pausebuild.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: pausebuild.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
			expErr: false,
		},
		"missing repository should fail": {
			config: pausebuild.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := pausebuild.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Pause(t *testing.T) {
	tests := map[string]struct {
		mockRepo  func(m *storagemock.MockRepository)
		buildID   string
		expErr    bool
		expErrIs  error
		expStatus model.BuildStatus
	}{
		"pausing a running build should persist paused": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetBuild", mock.Anything, "bld-1").Once().Return(&model.Build{
					ID: "bld-1", Status: model.BuildStatusRunning,
				}, nil)
				m.On("UpdateBuild", mock.Anything, mock.MatchedBy(func(b model.Build) bool {
					return b.ID == "bld-1" && b.Status == model.BuildStatusPaused
				})).Once().Return(nil)
			},
			buildID:   "bld-1",
			expStatus: model.BuildStatusPaused,
		},
		"pausing a pending build should fail": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetBuild", mock.Anything, "bld-1").Once().Return(&model.Build{
					ID: "bld-1", Status: model.BuildStatusPending,
				}, nil)
			},
			buildID:  "bld-1",
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"pausing a completed build should fail": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetBuild", mock.Anything, "bld-1").Once().Return(&model.Build{
					ID: "bld-1", Status: model.BuildStatusCompleted,
				}, nil)
			},
			buildID:  "bld-1",
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"missing build should fail": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetBuild", mock.Anything, "nope").Once().
					Return(nil, fmt.Errorf("build: %w", model.ErrNotFound))
			},
			buildID:  "nope",
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},
		"update failure should propagate": {
			mockRepo: func(m *storagemock.MockRepository) {
				m.On("GetBuild", mock.Anything, "bld-1").Once().Return(&model.Build{
					ID: "bld-1", Status: model.BuildStatusRunning,
				}, nil)
				m.On("UpdateBuild", mock.Anything, mock.Anything).Once().
					Return(errors.New("db locked"))
			},
			buildID: "bld-1",
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			repo := &storagemock.MockRepository{}
			test.mockRepo(repo)
			sink := &eventlogmock.RecorderSink{}

			svc, err := pausebuild.NewService(pausebuild.ServiceConfig{
				Repository: repo,
				Events:     sink,
			})
			require.NoError(err)

			build, err := svc.Pause(context.Background(), test.buildID)

			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.True(t, errors.Is(err, test.expErrIs))
				}
			} else {
				require.NoError(err)
				assert.Equal(t, test.expStatus, build.Status)
				require.NotEmpty(sink.Messages())
			}
			repo.AssertExpectations(t)
		})
	}
}
