package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrTruncated means the model stopped at its output token limit.
var ErrTruncated = errors.New("model output truncated")

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds. Both
// the delta-seconds and HTTP-date forms are accepted. Returns 0 if the value
// is empty or unparseable.
func ParseRetryAfterHeader(val string) int {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return secs
	}
	if at, err := http.ParseTime(val); err == nil {
		if secs := int(time.Until(at).Seconds()); secs > 0 {
			return secs
		}
	}
	return 0
}

// ServiceError is a non-429 failure talking to a provider. StatusCode is 0
// when no HTTP response was received.
type ServiceError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the same request may succeed.
func (e *ServiceError) Transient() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode == http.StatusRequestTimeout || e.StatusCode >= 500
}

// IsTransient reports whether err is a rate limit or a retryable service failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Transient()
	}
	return false
}

// IsServiceFault reports whether err came from a provider rather than from
// the document: any rate limit or service failure, retryable or not. A bad
// credential is a fault of the deployment and must not count against the
// document's attempts.
func IsServiceFault(err error) bool {
	if err == nil {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return !errors.Is(svcErr.Err, context.Canceled)
	}
	return false
}

// StatusError converts a non-200 provider response into the matching error type.
func StatusError(provider string, resp *http.Response, body []byte) error {
	baseErr := fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 500))
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return NewRateLimitError(provider, baseErr, retryAfter)
	}
	return &ServiceError{Provider: provider, StatusCode: resp.StatusCode, Err: baseErr}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
