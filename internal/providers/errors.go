package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailoverReason categorizes why a provider call failed, so the retry
// policy can tell a transient network hiccup from a request that will
// never succeed no matter how many times it's retried.
type FailoverReason string

const (
	FailoverRateLimit  FailoverReason = "rate_limit"
	FailoverAuth       FailoverReason = "auth"
	FailoverTimeout    FailoverReason = "timeout"
	FailoverServer     FailoverReason = "server_error"
	FailoverBadRequest FailoverReason = "invalid_request"
	FailoverUnknown    FailoverReason = "unknown"
)

// IsRetryable reports whether retrying the same call has a chance of
// succeeding.
func (r FailoverReason) IsRetryable() bool {
	switch r {
	case FailoverRateLimit, FailoverTimeout, FailoverServer:
		return true
	default:
		return false
	}
}

// ProviderError wraps a failed LLM call with enough context for the retry
// loop and for surfacing an LLMTransportError up to the caller.
type ProviderError struct {
	Provider   string
	Model      string
	Status     int
	Message    string
	RetryAfter int // seconds, 0 if not specified
	Cause      error
	Reason     FailoverReason
}

func (e *ProviderError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Reason), e.Provider}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// NewProviderError builds a ProviderError, classifying its reason from the
// underlying error text.
func NewProviderError(provider, model string, cause error) *ProviderError {
	e := &ProviderError{Provider: provider, Model: model, Cause: cause, Reason: FailoverUnknown}
	if cause != nil {
		e.Message = cause.Error()
		e.Reason = classifyError(cause)
	}
	return e
}

// WithStatus attaches an HTTP status code and reclassifies the reason from it.
func (e *ProviderError) WithStatus(status int) *ProviderError {
	e.Status = status
	e.Reason = classifyStatus(status)
	return e
}

func classifyError(err error) FailoverReason {
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return FailoverTimeout
	case strings.Contains(s, "too many requests") || strings.Contains(s, "rate limit"):
		return FailoverRateLimit
	case strings.Contains(s, "unauthorized") || strings.Contains(s, "401") || strings.Contains(s, "403"):
		return FailoverAuth
	case strings.Contains(s, "internal server") || strings.Contains(s, "502") || strings.Contains(s, "503"):
		return FailoverServer
	default:
		return FailoverUnknown
	}
}

func classifyStatus(status int) FailoverReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailoverAuth
	case status == http.StatusTooManyRequests:
		return FailoverRateLimit
	case status == http.StatusBadRequest:
		return FailoverBadRequest
	case status >= 500:
		return FailoverServer
	default:
		return FailoverUnknown
	}
}

// IsRetryable checks whether err (possibly wrapped) warrants a retry.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason.IsRetryable()
	}
	return classifyError(err).IsRetryable()
}
