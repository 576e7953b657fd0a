package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the store response status associated with this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// IsRetryable reports whether err (or any error it wraps) is a retryable
// AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// IsNotFound reports whether err (or any error it wraps) carries the
// NOT_FOUND code.
func IsNotFound(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == ErrCodeNotFound
	}
	return false
}

// CodeOf returns the error code carried by err, or ErrCodeInternal when err
// is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// --- Common Error Constructors ---

// Configuration creates a new AppError for an invalid or contradictory
// storage profile.
func Configuration(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: reason,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
	}
}

// InvalidKey creates a new AppError for a path that does not normalize to a
// usable object key.
func InvalidKey(path, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidKey, Message: fmt.Sprintf("Invalid storage path: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"path": path},
	}
}

// NotFound creates a new AppError for an object that was not found.
func NotFound(key string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("Object %q does not exist.", key),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"key": key},
	}
}

// ReadFailed creates a new AppError for a failed GET/HEAD.
func ReadFailed(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreRead, Message: fmt.Sprintf("Reading object %q from the store failed.", key),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"key": key}, Cause: cause,
	}
}

// WriteFailed creates a new AppError for a failed PUT or multipart upload.
func WriteFailed(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreWrite, Message: fmt.Sprintf("Writing object %q to the store failed.", key),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"key": key}, Cause: cause,
	}
}

// PartialSync creates a new AppError for a reconciliation pass that
// completed with per-key failures.
func PartialSync(failed, total int) *AppError {
	return &AppError{
		Code: ErrCodePartialSync, Message: fmt.Sprintf("Metadata sync failed for %d of %d objects.", failed, total),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"failed": failed, "total": total},
	}
}

// Forbidden creates a new AppError for a store permission failure.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "The store rejected the request credentials."
	}
	return &AppError{
		Code: ErrCodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// Timeout creates a new AppError for a store request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The store request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates a new AppError for store throttling.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "The store is throttling requests. Please wait and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// ConnectionFailed creates a new AppError for a failed store connection.
func ConnectionFailed(endpoint string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: "Unable to connect to the object store.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"endpoint": endpoint},
	}
}

// ServiceUnavailable creates a new AppError for a store that is temporarily
// unavailable.
func ServiceUnavailable() *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: "The object store is temporarily unavailable. Please try again.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
	}
}

// Internal creates a new AppError for an unexpected engine failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
