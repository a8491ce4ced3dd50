package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the token is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized: re-authentication required")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	// ErrUnavailable covers network failures and 5xx responses.
	ErrUnavailable = errors.New("task service unavailable")
)

// APIError is a non-2xx response from the task service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task service returned %d", e.Status)
	}
	return fmt.Sprintf("task service returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrValidation:
		return e.Status == http.StatusBadRequest
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrUnavailable:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}
