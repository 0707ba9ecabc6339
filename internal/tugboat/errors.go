package tugboat

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoResponse marks transport failures where no HTTP response arrived
	// (connection refused, DNS failure, timeout).
	ErrNoResponse = errors.New("no response received from Tugboat API")

	// ErrUnexpectedFormat marks responses that arrived but could not be
	// decoded into the expected shape.
	ErrUnexpectedFormat = errors.New("unexpected response format")
)

// APIError is a non-2xx response from the Tugboat API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

// Error renders the fixed messages downstream clients match on. The 404 text
// in particular is part of the compatibility surface and must not change.
func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Tugboat API Error: Authentication failed"
	case http.StatusForbidden:
		return "Tugboat API Error: Authorization failed"
	case http.StatusNotFound:
		return fmt.Sprintf("Tugboat API Error: Resource not found at %s", e.Endpoint)
	default:
		return fmt.Sprintf("Tugboat API Error (%d): %s", e.StatusCode, e.Message)
	}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuthFailure reports whether err is a 401 or 403 from the API.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
