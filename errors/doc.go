// Package errors provides unified error handling for the s3fs storage
// engine. It implements structured error types with machine-readable codes,
// HTTP status mapping (object stores speak HTTP) and retryable detection,
// so that transient store failures can be retried while configuration and
// permission failures propagate immediately.
package errors
