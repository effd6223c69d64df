package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for a request that cannot be sent.
	ErrInvalidRequest = errors.New("engine: invalid request")

	// ErrUnexpectedResponse is returned when a response does not have the
	// shape the query expects.
	ErrUnexpectedResponse = errors.New("engine: unexpected response")
)

// HTTPError is a non-2xx response without an engine error payload.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("engine: http status %d: %s", e.StatusCode, body)
}
