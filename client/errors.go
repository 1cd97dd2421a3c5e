package client

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the server rejects the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrValidation is returned when a mutation is rejected locally, before
// anything is sent to the server.
var ErrValidation = errors.New("validation failed")

// ErrListNotActive is returned when completing a list that is already
// completed or archived.
var ErrListNotActive = errors.New("list is not active")

// APIError carries a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
