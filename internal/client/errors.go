package client

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"appforge/internal/robustness"
)

// GenerationError is a failed call to the remote generation service.
type GenerationError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: generation failed (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: generation failed: %s", e.Provider, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// retryablePatterns are matched case-insensitively against untyped errors
// coming out of the provider SDKs.
var retryablePatterns = []string{
	"no choices",
	"unexpected api response",
	"rate limit",
	"timeout",
	"connection",
	"temporary",
	"service unavailable",
	"internal server error",
	"resource_exhausted",
	"unavailable",
}

// IsRetryable reports whether err looks transient. The orchestrator retries
// every failure regardless; this only decides how the failure is logged.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, robustness.ErrCircuitOpen) {
		return true
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		switch genErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// statusFromMessage extracts a well-known HTTP status from an SDK error
// message that carries no typed status.
func statusFromMessage(msg string) int {
	lower := strings.ToLower(msg)
	for _, code := range []int{429, 500, 502, 503, 504, 400, 401, 403, 404} {
		for _, prefix := range []string{"error %d", "status %d", "code %d"} {
			if strings.Contains(lower, fmt.Sprintf(prefix, code)) {
				return code
			}
		}
	}
	return 0
}
