package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeCrawlFailed      = "CRAWL_FAILED"
	ErrCodeParseFailed      = "PARSE_FAILED"
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrCodeValidation       = "VALIDATION_REJECTED"
	ErrCodeConfig           = "CONFIG_ERROR"
	ErrCodeSearchFailed     = "SEARCH_FAILED"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LookupError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type LookupError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError creates a new LookupError.
func NewLookupError(code, message string, err error) *LookupError {
	return &LookupError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *LookupError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// AsLookupError coerces any error into a *LookupError, wrapping unknown
// errors under INTERNAL_ERROR so handlers always have a code to report.
func AsLookupError(err error) *LookupError {
	var le *LookupError
	if errors.As(err, &le) {
		return le
	}
	return NewLookupError(ErrCodeInternal, err.Error(), err)
}

// HasCode reports whether err is (or wraps) a LookupError with the given code.
func HasCode(err error, code string) bool {
	var le *LookupError
	return errors.As(err, &le) && le.Code == code
}
