// Package apperr holds the error taxonomy shared by the upstream client,
// the predictor workflow and the HTTP controllers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Category string

const (
	CategoryValidation   Category = "validation"
	CategoryUpstream     Category = "upstream"
	CategoryNetwork      Category = "network"
	CategoryUnauthorized Category = "unauthorized"
	CategoryForbidden    Category = "forbidden"
	CategoryGateLocked   Category = "gate_locked"
	CategoryNoData       Category = "no_data"
)

var (
	ErrNoData     = &Error{Category: CategoryNoData, Message: "no data available"}
	ErrGateLocked = &Error{Category: CategoryGateLocked, Message: "contact details are required to view all results"}
)

// Error is a categorised failure. Fields carries per-field messages for
// validation errors; Status carries the upstream HTTP status when known.
type Error struct {
	Category  Category          `json:"category"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Status    int               `json:"-"`
	Retryable bool              `json:"retryable"`
	Cause     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on category so that errors.Is(err, ErrGateLocked) works for
// any gate-locked error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Category == e.Category
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Category: CategoryValidation, Message: message, Fields: fields}
}

func Field(field, message string) *Error {
	return Validation(message, map[string]string{field: message})
}

func Upstream(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Category: CategoryUpstream, Message: message, Status: status, Retryable: true}
}

func Network(cause error) *Error {
	return &Error{Category: CategoryNetwork, Message: "predictor service is unreachable", Retryable: true, Cause: cause}
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "session expired, please log in again"
	}
	return &Error{Category: CategoryUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func Forbidden(message string) *Error {
	return &Error{Category: CategoryForbidden, Message: message, Status: http.StatusForbidden}
}

// CategoryOf returns the category of err, or "" when err is not an *Error.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps an error to the status the gateway answers with.
func HTTPStatus(err error) int {
	switch CategoryOf(err) {
	case CategoryValidation:
		return http.StatusUnprocessableEntity
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryGateLocked:
		return http.StatusConflict
	case CategoryNoData:
		return http.StatusNoContent
	case CategoryUpstream, CategoryNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
