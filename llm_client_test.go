package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// flakyLLM fails a fixed number of times before succeeding.
type flakyLLM struct {
	failures int
	calls    int
}

func (f *flakyLLM) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient error")
	}
	return "ok", nil
}

func (f *flakyLLM) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient error")
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}, nil
}

func fastThrottled(llm llms.Model, config ThrottleConfig) *ThrottledLLM {
	t := NewThrottledLLM(llm, config)
	t.backoffMin = time.Millisecond
	t.backoffMax = 5 * time.Millisecond
	return t
}

func TestThrottledLLMRetriesUntilSuccess(t *testing.T) {
	flaky := &flakyLLM{failures: 2}
	throttled := fastThrottled(flaky, ThrottleConfig{MaxRetries: 3})

	response, err := throttled.Call(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
	assert.Equal(t, 3, flaky.calls)
}

func TestThrottledLLMExhaustsRetries(t *testing.T) {
	flaky := &flakyLLM{failures: 10}
	throttled := fastThrottled(flaky, ThrottleConfig{MaxRetries: 2})

	_, err := throttled.Call(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retry attempts failed")
	assert.Equal(t, 3, flaky.calls) // initial attempt plus two retries
}

func TestThrottledLLMGenerateContentRetries(t *testing.T) {
	flaky := &flakyLLM{failures: 1}
	throttled := fastThrottled(flaky, ThrottleConfig{MaxRetries: 3})

	resp, err := throttled.GenerateContent(context.Background(), []llms.MessageContent{
		{
			Parts: []llms.ContentPart{llms.TextContent{Text: "prompt"}},
			Role:  llms.ChatMessageTypeHuman,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Choices[0].Content)
	assert.Equal(t, 2, flaky.calls)
}

func TestThrottledLLMContextCancellation(t *testing.T) {
	flaky := &flakyLLM{failures: 10}
	throttled := NewThrottledLLM(flaky, ThrottleConfig{MaxRetries: 5})
	// Long enough backoff that cancellation wins the select
	throttled.backoffMin = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := throttled.Call(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottledLLMDefaults(t *testing.T) {
	throttled := NewThrottledLLM(&flakyLLM{}, ThrottleConfig{})
	assert.Nil(t, throttled.rateLimiter, "no limiter without a positive RPM")
	assert.Equal(t, 3, throttled.maxRetries)
	assert.Equal(t, 30*time.Second, throttled.backoffMax)
}

func TestBackoffForIsCapped(t *testing.T) {
	throttled := NewThrottledLLM(&flakyLLM{}, ThrottleConfig{BackoffMaxWait: 2 * time.Second})

	for attempt := 0; attempt < 12; attempt++ {
		backoff := throttled.backoffFor(attempt)
		// Cap plus the 20% jitter margin
		assert.LessOrEqual(t, backoff, time.Duration(float64(2*time.Second)*1.2)+time.Millisecond)
		assert.Greater(t, backoff, time.Duration(0))
	}
}
