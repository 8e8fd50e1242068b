package npi

import (
	"fmt"
	"net/http"
	"strings"
)

// UnavailableError means the registry could not be reached or answered with a
// non-2xx status. StatusCode is 0 for transport failures.
type UnavailableError struct {
	StatusCode int
	Cause      error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("NPI registry unavailable: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("NPI registry unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// Retryable reports whether another attempt could plausibly succeed.
func (e *UnavailableError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// MalformedResponseError means the registry answered 2xx with a body that
// does not have the expected shape.
type MalformedResponseError struct {
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed NPI registry response: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// RejectedError means the registry returned its own "Errors" payload, e.g.
// for a query it considers too broad.
type RejectedError struct {
	Descriptions []string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("NPI registry rejected query: %s", strings.Join(e.Descriptions, "; "))
}
