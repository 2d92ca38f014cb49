package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or bad credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrUpstream indicates that an external dependency (object store) failed.
var ErrUpstream = errors.New("upstream failure")

// ErrInternal indicates a broken invariant or an unexpected dependency fault.
var ErrInternal = errors.New("internal error")

// ErrInvalidToken is returned for every token that fails verification.
// Expired, tampered and malformed tokens are deliberately indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

// ErrStaleRefreshToken is returned when a conditional refresh-token swap finds
// a different stored value.
var ErrStaleRefreshToken = errors.New("stale refresh token")

// AppError is an error that carries an HTTP status and a caller-safe message.
type AppError struct {
	Code    int
	Message string
	Kind    error
	Err     error
	Details []string
}

// NewAppError creates an AppError, deriving its kind from the status code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Kind: kindForCode(code), Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind sentinel and the wrapped cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WithDetails attaches a list of field-level messages.
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = append(e.Details, details...)
	return e
}

// InvalidInput is a 400 for malformed or missing caller data.
func InvalidInput(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, nil)
}

// Conflict is a 409 for duplicate identities.
func Conflict(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

// Unauthorized is a 401 for bad credentials or bad, missing or reused tokens.
func Unauthorized(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, message, err)
}

// Upstream is a 502 for object store failures, timeouts included.
func Upstream(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, message, err)
}

// Internal is a 500.
func Internal(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

// StatusCode returns the HTTP status for err, defaulting to 500.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrStaleRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func kindForCode(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusConflict:
		return ErrDuplicate
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadGateway:
		return ErrUpstream
	default:
		return ErrInternal
	}
}
