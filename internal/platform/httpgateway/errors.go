package httpgateway

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/vocab-trainer/internal/gateway"
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend answered %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend answered %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to a gateway error category.
func (e *StatusError) Unwrap() error {
	if e.Temporary() {
		return gateway.ErrUnavailable
	}
	return gateway.ErrRejected
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}
