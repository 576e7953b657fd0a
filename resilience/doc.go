// Package resilience provides retry with exponential backoff and jitter.
//
// The upload engine retries transient store failures per request and per
// multipart chunk; which errors count as transient is decided by the
// caller-supplied RetryIf predicate.
package resilience
