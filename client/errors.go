package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the HTTP status classes returned by Bonsai
// services. Wrapped into APIError so callers can use errors.Is.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnprocessable   = errors.New("unprocessable entity")
	ErrTooManyRequests = errors.New("too many requests")
	ErrServer          = errors.New("server error")
)

// ErrExhausted indicates a request failed after exhausting its retries
// without ever receiving an HTTP response.
var ErrExhausted = errors.New("request retries exhausted")

// APIError represents an error response from a Bonsai service.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// Unwrap maps the status code onto its sentinel, so that
// errors.Is(err, ErrNotFound) and friends work.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	}
	if e.Status >= 500 {
		return ErrServer
	}
	return nil
}
