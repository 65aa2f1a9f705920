package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrStale marks a response that arrived after a newer fetch superseded it.
	ErrStale = errors.New("stale response discarded")
	// ErrTransition marks an action that is not legal from the current state.
	ErrTransition = errors.New("action not allowed in current state")
	// ErrNotPermitted marks an action the current user may not take.
	ErrNotPermitted = errors.New("action not permitted for current user")
	// ErrNoSession marks a call made without an authenticated session.
	ErrNoSession = errors.New("no active session")
)

// AuthError is returned when login or registration is rejected.
type AuthError struct {
	Op     string
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s rejected: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s rejected", e.Op)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), body)
}

// NetworkError is a request that could not complete.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps a failed login or registration.
func NewAuthError(op string, err error) *AuthError {
	authErr := &AuthError{Op: op, Err: err}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		authErr.Status = apiErr.Status
	}
	return authErr
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the token.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
