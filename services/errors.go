// ABOUTME: Error taxonomy for session and proxy operations
// ABOUTME: Distinguishes configuration, auth, upstream business, shape, and transport failures

package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured means the upstream base address is missing. Every
	// request fails identically until the deployment is fixed.
	ErrNotConfigured = errors.New("upstream API base address is not configured")

	// ErrUnauthenticated means there is no usable session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the session was rejected and both cookies were cleared.
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrUnauthenticated)

	// ErrUnexpectedResponse means the upstream answered 2xx with a payload
	// that does not match the operation's result type.
	ErrUnexpectedResponse = errors.New("unexpected upstream response")
)

// UpstreamError is a non-2xx answer from the upstream API. The body is kept
// so it can be relayed to the client unchanged.
type UpstreamError struct {
	Op          string
	StatusCode  int
	ContentType string
	Body        []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
}

// TransportError is an upstream call that never produced a response
// (connection refused, DNS, timeout, cancelled context).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: upstream request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is an upstream 401
func IsUnauthorized(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.StatusCode == http.StatusUnauthorized
}

func unexpected(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnexpectedResponse, err)
}
