package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// ThrottledLLM wraps an LLM client with rate limiting and retry capabilities
type ThrottledLLM struct {
	llm         llms.Model
	rateLimiter *rate.Limiter
	maxRetries  int
	backoffMin  time.Duration
	backoffMax  time.Duration
}

// ThrottleConfig holds configuration for rate limiting and retries
type ThrottleConfig struct {
	// RequestsPerMinute is the maximum number of requests allowed per minute
	// If 0 or negative, no rate limiting is applied
	RequestsPerMinute float64

	// MaxRetries is the maximum number of retry attempts
	// If 0 or negative, a default of 3 is used
	MaxRetries int

	// BackoffMaxWait is the maximum wait time between retries
	// Defaults to 30 seconds if not specified
	BackoffMaxWait time.Duration
}

// NewThrottledLLM creates a new rate-limited LLM client
func NewThrottledLLM(llm llms.Model, config ThrottleConfig) *ThrottledLLM {
	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		rps := rate.Limit(config.RequestsPerMinute / 60.0)
		limiter = rate.NewLimiter(rps, 1) // Burst size of 1
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	backoffMax := config.BackoffMaxWait
	if backoffMax <= 0 {
		backoffMax = 30 * time.Second
	}

	return &ThrottledLLM{
		llm:         llm,
		rateLimiter: limiter,
		maxRetries:  maxRetries,
		backoffMin:  1 * time.Second,
		backoffMax:  backoffMax,
	}
}

// backoffFor computes the exponential backoff for the given attempt,
// with +/- 20% jitter.
func (t *ThrottledLLM) backoffFor(attempt int) time.Duration {
	backoff := t.backoffMin * time.Duration(1<<uint(attempt))
	if backoff > t.backoffMax {
		backoff = t.backoffMax
	}
	return time.Duration(float64(backoff) * (0.8 + 0.4*rand.Float64()))
}

// Call implements the llms.Model interface
func (t *ThrottledLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		response, err := t.llm.Call(ctx, prompt, options...)
		if err == nil {
			return response, nil
		}

		if attempt >= t.maxRetries {
			if lastErr != nil {
				return "", fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
			}
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.backoffFor(attempt)):
			lastErr = err
		}
	}
}

// GenerateContent implements the llms.Model interface with rate limiting and retries
func (t *ThrottledLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := t.llm.GenerateContent(ctx, messages, options...)
		if err == nil {
			return resp, nil
		}

		if attempt >= t.maxRetries {
			if lastErr != nil {
				return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
			}
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.backoffFor(attempt)):
			lastErr = err
		}
	}
}
