package sheetrows

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRateLimited    = errors.New("rate limited")
	ErrClientClosed   = errors.New("client is closed")
)

// Error codes reported in the errorCode field of an error response.
const (
	ErrorCodeNotAuthorized    = 1004
	ErrorCodeNotFound         = 1006
	ErrorCodeUnparseable      = 1008
	ErrorCodeMissingAttribute = 1012
	ErrorCodeInvalidColumn    = 1036
	ErrorCodeInvalidPlacement = 1062
	ErrorCodeUnavailable      = 4001
	ErrorCodeRateLimited      = 4003
)

// ErrorDetail is the error object carried by failed responses and by
// failed items of a partial-success bulk request.
type ErrorDetail struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	RefID     string `json:"refId,omitempty"`
}

func (d ErrorDetail) Error() string {
	return fmt.Sprintf("error %d: %s", d.ErrorCode, d.Message)
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	RequestID  string
	ErrorDetail
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
}

// Is maps the HTTP status onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// retryable reports whether the request that produced e may be sent again.
// A 429 was rejected before anything was applied. A 5xx may have been
// applied, so only idempotent methods are resent.
func (e *APIError) retryable(method string) bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError && idempotent(method)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}
