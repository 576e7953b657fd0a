package s3

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	apperrors "github.com/kbukum/s3fs/errors"
)

// FromS3 converts an aws-sdk-go-v2 error into an AppError so the rest of
// the engine can reason about retryability and not-found semantics without
// knowing SDK types.
func FromS3(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("s3 request").WithCause(err)
	}

	// Modeled not-found errors.
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return apperrors.NotFound("").WithCause(err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404", "NoSuchBucket":
			return apperrors.NotFound("").WithCause(err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return apperrors.Forbidden("").WithCause(err)
		case "SlowDown", "Throttling", "ThrottlingException", "TooManyRequests", "RequestLimitExceeded":
			return apperrors.RateLimited().WithCause(err)
		case "RequestTimeout", "RequestTimeoutException":
			return apperrors.Timeout("s3 request").WithCause(err)
		case "InternalError", "ServiceUnavailable", "503":
			return apperrors.ServiceUnavailable().WithCause(err)
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch code := respErr.HTTPStatusCode(); {
		case code == 404:
			return apperrors.NotFound("").WithCause(err)
		case code == 403:
			return apperrors.Forbidden("").WithCause(err)
		case code == 429:
			return apperrors.RateLimited().WithCause(err)
		case code >= 500:
			return apperrors.ServiceUnavailable().WithCause(err)
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") {
		return apperrors.ConnectionFailed("").WithCause(err)
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return apperrors.Timeout("s3 request").WithCause(err)
	}

	return apperrors.Internal(err)
}

// retryableS3 is the RetryIf predicate for store requests: retry only
// transient taxonomy codes.
func retryableS3(err error) bool {
	return apperrors.IsRetryable(FromS3(err))
}
