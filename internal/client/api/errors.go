package api

import (
	"errors"
	"fmt"
)

// ErrUnavailable means the request produced no response at all (connection
// refused, timeout, DNS failure). Matched with errors.Is.
var ErrUnavailable = errors.New("server unavailable")

// Error is an HTTP response with a failure status. Message holds the text
// extracted from a structured error body, or "" when the body was absent or
// unparseable.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}
