package eventlog_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/eventlog"
	"github.com/appforge/appforge/internal/model"
	"github.com/appforge/appforge/internal/storage/storagemock"
)

func TestTruncate(t *testing.T) {
	tests := map[string]struct {
		msg    string
		max    int
		expMsg string
	}{
		"short message untouched":     {msg: "hello", max: 10, expMsg: "hello"},
		"long message cut at bound":   {msg: strings.Repeat("x", 20), max: 5, expMsg: "xxxxx"},
		"zero bound means unbounded":  {msg: "hello", max: 0, expMsg: "hello"},
		"cut backs off a split rune":  {msg: "création", max: 3, expMsg: "cr"},
		"cut on a rune boundary":      {msg: "création", max: 4, expMsg: "cré"},
		"multibyte only keeps whole":  {msg: "日本語", max: 4, expMsg: "日"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := eventlog.Truncate(test.msg, test.max)
			assert.Equal(t, test.expMsg, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestStoreSinkAppend(t *testing.T) {
	repo := &storagemock.MockRepository{}
	repo.On("AppendEvent", mock.Anything, mock.MatchedBy(func(e model.ProgressEvent) bool {
		return e.BuildID == "bld-1" &&
			e.Message == strings.Repeat("x", eventlog.DefaultMaxMessageLen) &&
			e.Severity == model.EventSeverityInfo &&
			e.ID != ""
	})).Once().Return(nil)

	sink, err := eventlog.NewStoreSink(eventlog.StoreSinkConfig{Repository: repo})
	require.NoError(t, err)

	sink.Append(context.Background(), "bld-1", strings.Repeat("x", 5000), model.EventSeverityInfo)
	repo.AssertExpectations(t)
}

func TestStoreSinkSwallowsErrors(t *testing.T) {
	repo := &storagemock.MockRepository{}
	repo.On("AppendEvent", mock.Anything, mock.Anything).Once().Return(fmt.Errorf("store down"))

	sink, err := eventlog.NewStoreSink(eventlog.StoreSinkConfig{Repository: repo})
	require.NoError(t, err)

	// Must not panic nor surface the error.
	sink.Append(context.Background(), "bld-1", "message", model.EventSeverityError)
	repo.AssertExpectations(t)
}

func TestStoreSinkRequiresRepository(t *testing.T) {
	_, err := eventlog.NewStoreSink(eventlog.StoreSinkConfig{})
	require.Error(t, err)
}
