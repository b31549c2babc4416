package apiclient

import (
	"errors"
	"fmt"
)

// FallbackMessage is used when an error response carries no usable detail
const FallbackMessage = "Request failed"

// ErrRequestFailed wraps transport-level failures (DNS, refused connection,
// reset) where no HTTP status was received.
var ErrRequestFailed = errors.New("request failed")

// APIError is a non-2xx response from the backend. Error returns only the
// human-readable message so it can be shown to the user as-is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status of err if it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message returns the text to show a user for err, or fallback when err
// carries no message.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func transportError(err error) error {
	return fmt.Errorf("%w: %v", ErrRequestFailed, err)
}
