package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
	"github.com/davicafu/tiendalab/tests/mocks"
)

func TestFallbackCompleter_PrimaryWins(t *testing.T) {
	primary := new(mocks.MockCompleter)
	secondary := new(mocks.MockCompleter)

	primary.On("Complete", mock.Anything, mock.Anything, "prompt").
		Return(`{"color":"red"}`, nil).Once()

	f := NewFallbackCompleter(primary, secondary, time.Second, zap.NewNop())
	summary, err := f.Complete(context.Background(), sampleTranscript(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"color":"red"}`, summary)
	secondary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestFallbackCompleter_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := new(mocks.MockCompleter)
	secondary := new(mocks.MockCompleter)

	primary.On("Complete", mock.Anything, mock.Anything, "prompt").
		Return("", errors.New("upstream 500")).Once()
	secondary.On("Complete", mock.Anything, mock.Anything, "prompt").
		Return(`{"season":"winter"}`, nil).Once()

	f := NewFallbackCompleter(primary, secondary, time.Second, zap.NewNop())
	summary, err := f.Complete(context.Background(), sampleTranscript(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"season":"winter"}`, summary)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestFallbackCompleter_BothFail(t *testing.T) {
	primary := new(mocks.MockCompleter)
	secondary := new(mocks.MockCompleter)

	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("down")).Once()
	secondary.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("also down")).Once()

	f := NewFallbackCompleter(primary, secondary, time.Second, zap.NewNop())
	_, err := f.Complete(context.Background(), sampleTranscript(), "prompt")

	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
}

func TestFallbackCompleter_CancelledContextSkipsFallback(t *testing.T) {
	primary := new(mocks.MockCompleter)
	secondary := new(mocks.MockCompleter)

	ctx, cancel := context.WithCancel(context.Background())
	primary.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return("", context.Canceled).Once()

	f := NewFallbackCompleter(primary, secondary, time.Second, zap.NewNop())
	_, err := f.Complete(ctx, sampleTranscript(), "prompt")

	assert.ErrorIs(t, err, recoDomain.ErrExtractionFailed)
	secondary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything,
		"una petición abandonada no debe gastar el respaldo")
}
