package http

import (
	"fmt"
	"net/http"
)

// Error codes shared by handlers. Validation failures use "ERR_" plus the
// upper-cased validator tag.
const (
	CodeBind        = "ERR_BIND"
	CodeNotFound    = "ERR_NOT_FOUND"
	CodeRateLimited = "ERR_RATE_LIMITED"
	CodeUnavailable = "ERR_UNAVAILABLE"
	CodeInternal    = "ERR_INTERNAL"
)

// AppError is a client-facing error with an HTTP status. Err is kept for
// logs and never serialised.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Status: status}
}

// WithParam attaches a detail for clients, e.g. the allowed values.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, "", message, http.StatusNotFound)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(CodeRateLimited, "", message, http.StatusTooManyRequests)
}

func ServiceUnavailableError(message string) *AppError {
	return NewAppError(CodeUnavailable, "", message, http.StatusServiceUnavailable)
}

func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}
