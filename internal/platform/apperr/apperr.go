// Package apperr defines the error taxonomy shared by every service:
// validation, not-found, conflict, and storage errors, each carrying a
// stable machine-readable code. Handlers never pick HTTP statuses
// themselves; the echo error handler in this package is the single place
// that maps a kind to a status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStorage
)

// Error is a typed application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports invalid or missing caller input.
func Validation(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports that a referenced entity does not exist.
func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports an illegal state transition or duplicate.
func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an underlying persistence failure.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Code: "storage_error", Message: "storage failure", Err: err}
}

// KindOf returns the kind of err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

func httpStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorHandler returns an echo error handler that translates application
// errors to their fixed statuses and emits a stable {error:{code,message}}
// body. Storage errors are logged with their cause; the cause is never sent
// to the caller.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Error: errorDetail{Code: "internal_error", Message: "internal server error"}}

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = httpStatus(ae.Kind)
			body.Error.Code = ae.Code
			body.Error.Message = ae.Message
			if ae.Kind == KindStorage {
				body.Error.Message = "storage failure"
				logger.Error().Err(ae.Err).Str("code", ae.Code).Msg("storage error")
			}
		case errors.As(err, &he):
			status = he.Code
			body.Error.Code = http.StatusText(he.Code)
			body.Error.Message = fmt.Sprintf("%v", he.Message)
		default:
			logger.Error().Err(err).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
