package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// username/password pair (HTTP 401 or 422 on the login endpoint).
var ErrInvalidCredentials = errors.New("invalid username or password")

// ValidationError carries per-field messages extracted from a 4xx response
// body, e.g. a rejected registration. Fields may be empty when the backend
// only supplied a top-level message.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(names, ", "))
}

// NetworkError means no usable response reached the client: connection
// refused, DNS failure, timeout, context cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError covers non-2xx responses that are neither credential
// rejections nor validation failures: 5xx, or a body that does not match
// the expected schema.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}
