// Package errors defines the service error taxonomy. Each ServiceError
// carries the HTTP status it maps to and a client-safe message; the wrapped
// cause is for logs only and never crosses the API boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindUpstreamFetchFailure Kind = "upstream_fetch_failure"
	KindStorageFailure       Kind = "storage_failure"
	KindMalformedRequestBody Kind = "malformed_request_body"
	KindRateLimited          Kind = "rate_limited"
	KindInternal             Kind = "internal"
)

// ServiceError is the error type returned across package boundaries.
type ServiceError struct {
	Kind       Kind
	HTTPStatus int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is matches another *ServiceError by kind, so sentinel-style checks work:
// errors.Is(err, &ServiceError{Kind: KindConflict}).
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, status int, msg string, err error) *ServiceError {
	return &ServiceError{Kind: kind, HTTPStatus: status, Message: msg, Err: err}
}

func NotFound(msg string) *ServiceError {
	return newError(KindNotFound, http.StatusNotFound, msg, nil)
}

func Conflict(msg string) *ServiceError {
	return newError(KindConflict, http.StatusConflict, msg, nil)
}

func UpstreamFetchFailure(msg string, err error) *ServiceError {
	return newError(KindUpstreamFetchFailure, http.StatusInternalServerError, msg, err)
}

func StorageFailure(msg string, err error) *ServiceError {
	return newError(KindStorageFailure, http.StatusInternalServerError, msg, err)
}

func MalformedRequestBody(err error) *ServiceError {
	return newError(KindMalformedRequestBody, http.StatusInternalServerError, "malformed request body", err)
}

// RateLimitExceeded reports a rejected request; limit is requests per window.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(KindRateLimited, http.StatusTooManyRequests,
		fmt.Sprintf("rate limit of %d requests per %s exceeded", limit, window), nil)
}

func Internal(msg string, err error) *ServiceError {
	return newError(KindInternal, http.StatusInternalServerError, msg, err)
}

// KindOf returns the kind of the first ServiceError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err's chain holds a ServiceError of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
