package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport errors (retryable)
const (
	// ErrCodeTimeout indicates a store request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the store is throttling requests.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeConnectionFailed indicates a failed connection to the store.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeServiceUnavailable indicates the store is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Storage errors
const (
	// ErrCodeNotFound indicates the requested object was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStoreRead indicates a GET/HEAD against the store failed.
	ErrCodeStoreRead ErrorCode = "STORE_READ_ERROR"
	// ErrCodeStoreWrite indicates a PUT/multipart write failed after
	// exhausting retries.
	ErrCodeStoreWrite ErrorCode = "STORE_WRITE_ERROR"
	// ErrCodePartialSync indicates one or more keys failed during a
	// metadata reconciliation pass while others succeeded.
	ErrCodePartialSync ErrorCode = "PARTIAL_SYNC_FAILURE"
)

// Caller errors
const (
	// ErrCodeConfiguration indicates an invalid or contradictory profile.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeInvalidKey indicates a path that normalizes outside the
	// virtual root or to the empty key.
	ErrCodeInvalidKey ErrorCode = "INVALID_KEY"
	// ErrCodeForbidden indicates the store rejected the credentials.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected engine failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeConnectionFailed:   true,
	ErrCodeServiceUnavailable: true,
	ErrCodeStoreRead:          false,
	ErrCodeStoreWrite:         false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a transient
// failure that may succeed on retry.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
