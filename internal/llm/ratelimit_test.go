package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/config"
	"lawnorm/internal/llm"
	"lawnorm/mocks"
)

func newRateLimited(next *mocks.MockTextGenerator, retries int) (*llm.RateLimitedGenerator, *[]time.Duration) {
	var slept []time.Duration
	g := llm.NewRateLimitedGenerator(next, config.RateLimitConfig{
		MaxRetries:     retries,
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
	}, nil).WithSleeper(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})
	return g, &slept
}

func TestRateLimitedGenerator_RetriesTransientFailures(t *testing.T) {
	next := new(mocks.MockTextGenerator)
	transient := &llm.ServiceError{Provider: "gemini", StatusCode: 503, Err: errors.New("unavailable")}
	next.On("Generate", mock.Anything, "p").Return("", transient).Twice()
	next.On("Generate", mock.Anything, "p").Return("done", nil).Once()

	g, slept := newRateLimited(next, 3)
	out, err := g.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestRateLimitedGenerator_BackoffIsCapped(t *testing.T) {
	next := new(mocks.MockTextGenerator)
	transient := &llm.ServiceError{Provider: "gemini", Err: errors.New("reset")}
	next.On("Generate", mock.Anything, "p").Return("", transient)

	g, slept := newRateLimited(next, 4)
	_, err := g.Generate(context.Background(), "p")

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, *slept)
	next.AssertNumberOfCalls(t, "Generate", 5)
}

func TestRateLimitedGenerator_HonorsRetryAfter(t *testing.T) {
	next := new(mocks.MockTextGenerator)
	next.On("Generate", mock.Anything, "p").Return("", llm.NewRateLimitError("claude", errors.New("429"), 20)).Once()
	next.On("Generate", mock.Anything, "p").Return("ok", nil).Once()

	g, slept := newRateLimited(next, 2)
	_, err := g.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{20 * time.Second}, *slept)
}

func TestRateLimitedGenerator_PermanentErrorNotRetried(t *testing.T) {
	next := new(mocks.MockTextGenerator)
	permanent := &llm.ServiceError{Provider: "openai", StatusCode: 401, Err: errors.New("bad key")}
	next.On("Generate", mock.Anything, "p").Return("", permanent)

	g, slept := newRateLimited(next, 3)
	_, err := g.Generate(context.Background(), "p")

	assert.ErrorIs(t, err, permanent)
	assert.Empty(t, *slept)
	next.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRateLimitedGenerator_CanceledContext(t *testing.T) {
	next := new(mocks.MockTextGenerator)
	g, _ := newRateLimited(next, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "p")

	assert.Error(t, err)
	next.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
