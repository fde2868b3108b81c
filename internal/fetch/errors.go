package fetch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ppiankov/reviewharvest/internal/resilience"
)

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.Code)
	}
	return fmt.Sprintf("unexpected status: %d %s", e.Code, status)
}

// statusErr classifies a status code: retryable codes become TransientErrors
func statusErr(code int, status, url string) error {
	err := &StatusError{Code: code, Status: status, URL: url}
	if resilience.IsTransientHTTPStatus(code) {
		return resilience.NewTransientError(err, code)
	}
	return err
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 or 410 response
func IsNotFound(err error) bool {
	code := StatusCode(err)
	return code == http.StatusNotFound || code == http.StatusGone
}
