package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingCredential is returned when a required credential is not configured.
type ErrMissingCredential struct {
	EnvVar string
}

// Error implements the error interface.
func (e *ErrMissingCredential) Error() string {
	return fmt.Sprintf("%s is not set", e.EnvVar)
}

// Is allows for error checking with errors.Is().
func (e *ErrMissingCredential) Is(target error) bool {
	_, ok := target.(*ErrMissingCredential)
	return ok
}

// NewMissingCredentialError creates a new ErrMissingCredential.
func NewMissingCredentialError(envVar string) *ErrMissingCredential {
	return &ErrMissingCredential{EnvVar: envVar}
}

// ErrUnexpectedStatus is returned when a remote endpoint answers with a non-2xx status.
type ErrUnexpectedStatus struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrUnexpectedStatus) Is(target error) bool {
	_, ok := target.(*ErrUnexpectedStatus)
	return ok
}

// Retryable reports whether the status is worth another attempt:
// request timeouts, rate limiting and server errors.
func (e *ErrUnexpectedStatus) Retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		(e.StatusCode >= 500 && e.StatusCode <= 599)
}

// NewUnexpectedStatusError creates a new ErrUnexpectedStatus.
func NewUnexpectedStatusError(statusCode int, url string) *ErrUnexpectedStatus {
	return &ErrUnexpectedStatus{StatusCode: statusCode, URL: url}
}

// ErrDecode is returned when a response body cannot be decoded.
type ErrDecode struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *ErrDecode) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrDecode) Is(target error) bool {
	_, ok := target.(*ErrDecode)
	return ok
}

// IsRetryable classifies an error from a single HTTP attempt.
// Cancellation, decode failures and non-retryable statuses end the retry loop;
// network errors and everything unclassified are retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *ErrUnexpectedStatus
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var decodeErr *ErrDecode
	if errors.As(err, &decodeErr) {
		return false
	}

	return true
}
