// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies an error so handlers can map it to an HTTP status and
// clients can distinguish "fix your input" from "try again".
type Kind int

const (
	KindUnauthenticated Kind = iota // missing or invalid credential
	KindNotFound                    // row absent, or owned by another user
	KindInvalidArgument             // validation failure, detected before any write
	KindConflict                    // concurrent mutation aborted; caller retries the call
	KindDependency                  // row store / blob store / sidecar failure
	KindInternal
)

// HTTPStatus maps each kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed error services return. Fields is non-nil only for
// field-scoped validation failures.
type Error struct {
	Kind   Kind              `json:"-"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string { return e.Detail }

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// NewValidation wraps multiple field errors as a single InvalidArgument error.
func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: KindInvalidArgument, Detail: "Error de validacion", Fields: fields}
}

// From extracts a typed *Error, defaulting unknown errors to KindInternal
// with a generic message so internals are never leaked.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Kind: KindInternal, Detail: "Error interno del servidor"}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}
