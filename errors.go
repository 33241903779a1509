package adminauth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a request cannot be authenticated:
	// no stored tokens, or the 401→refresh→replay cycle is exhausted.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRefreshInvalid is returned when the backend rejects the refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshRateLimited is returned when the local refresh throttle rejects
	// a refresh attempt before it reaches the backend.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrInvalidCredentials is returned by Login when the backend rejects the
	// supplied email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionClosed is returned by Session operations after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrSuperseded is returned when an async completion lost the race
	// against a newer state change (typically a logout) and was discarded.
	ErrSuperseded = errors.New("operation superseded by newer session state")
	// ErrNotInitialized is returned when a Session operation requires
	// Initialize to have run first.
	ErrNotInitialized = errors.New("session not initialized")
)

// APIError is the normalized shape of every non-2xx backend response.
// It is built from the backend's {success, message, error} envelope; callers
// never see the raw transport error.
type APIError struct {
	Message string
	Status  int
	Code    string
	Details any
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
