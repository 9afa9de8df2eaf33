package accounting

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream wraps every failure talking to the accounting system.
	ErrUpstream = errors.New("accounting upstream failure")
	// ErrTooManyPages is returned when pagination never signals completion.
	ErrTooManyPages = errors.New("page limit exceeded")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status code %d", e.Resource, e.StatusCode)
	}

	return fmt.Sprintf("%s: unexpected status code %d: %s", e.Resource, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}
