package api

import (
	"context"
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// TaskError is returned by WaitTask when a task ends without completing.
type TaskError struct {
	TaskID string
	Status TaskStatus
	Reason string
}

func (e *TaskError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("task %s %s", e.TaskID, e.Status)
	}
	return fmt.Sprintf("task %s %s: %s", e.TaskID, e.Status, e.Reason)
}

// IsRetryable reports whether err is worth another attempt. Transport
// failures are retried; context errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	var transport *transportError
	return errors.As(err, &transport)
}

type transportError struct {
	cause error
}

func (e *transportError) Error() string { return fmt.Sprintf("request failed: %v", e.cause) }
func (e *transportError) Unwrap() error { return e.cause }
