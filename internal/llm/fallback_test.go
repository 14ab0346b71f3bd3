package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/llm"
	"lawnorm/internal/port"
	"lawnorm/mocks"
)

func TestFallbackGenerator_FirstSucceeds(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, "prompt").Return(`{"ok":true}`, nil)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"claude", "gemini"}, nil)
	out, err := fg.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	g2.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestFallbackGenerator_FirstFails_SecondSucceeds(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, "prompt").Return("", errors.New("generic error"))
	g2.On("Generate", mock.Anything, "prompt").Return("second", nil)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"claude", "gemini"}, nil)
	out, err := fg.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestFallbackGenerator_RateLimitedProviderIsSkipped(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, "prompt").Return("", llm.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	g2.On("Generate", mock.Anything, "prompt").Return("second", nil)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"claude", "gemini"}, nil)

	_, err := fg.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	_, err = fg.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	// circuit for the first provider is open on the second call
	g1.AssertNumberOfCalls(t, "Generate", 1)
	g2.AssertNumberOfCalls(t, "Generate", 2)
}

func TestFallbackGenerator_AllRateLimited(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, "prompt").Return("", llm.NewRateLimitError("claude", errors.New("429"), 30))
	g2.On("Generate", mock.Anything, "prompt").Return("", llm.NewRateLimitError("gemini", errors.New("429"), 10))

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"claude", "gemini"}, nil)
	_, err := fg.Generate(context.Background(), "prompt")

	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "all", rlErr.Provider)
	assert.True(t, llm.IsTransient(err))
}

func TestFallbackGenerator_AllFail(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	last := errors.New("second broke")
	g1.On("Generate", mock.Anything, "prompt").Return("", errors.New("first broke"))
	g2.On("Generate", mock.Anything, "prompt").Return("", last)

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"claude", "gemini"}, nil)
	_, err := fg.Generate(context.Background(), "prompt")

	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestFallbackGenerator_Model(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Model").Return("claude-x")
	g2.On("Model").Return("gemini-y")

	fg := llm.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"claude", "gemini"}, nil)
	assert.Equal(t, "claude-x,gemini-y", fg.Model())
}
