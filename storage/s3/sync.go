package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/kbukum/s3fs/errors"
	"github.com/kbukum/s3fs/logger"
	"github.com/kbukum/s3fs/storage"
)

// SyncMeta re-applies the profile's current metadata to every object under
// the profile's key prefix. Objects whose live headers already match the
// recomputed target are left untouched; the rest are rewritten with an
// in-place copy, which is the only way to mutate headers on an immutable
// object without re-uploading the body.
//
// One key's failure is recorded and does not abort the remaining keys.
// Cancelling the context stops issuing new per-key operations; header
// updates already applied are not rolled back (each is independently
// idempotent).
func (s *Storage) SyncMeta(ctx context.Context) (*storage.SyncReport, error) {
	report := &storage.SyncReport{}

	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.profile.Bucket),
	}
	if s.profile.KeyPrefix != "" {
		input.Prefix = aws.String(storage.JoinPrefix(s.profile.KeyPrefix, "") + "/")
	}

	for {
		out, err := s.api.ListObjectsV2(ctx, input)
		if err != nil {
			return report, apperrors.ReadFailed(s.profile.KeyPrefix, FromS3(err))
		}
		for _, obj := range out.Contents {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			key := aws.ToString(obj.Key)
			updated, err := s.syncKey(ctx, key)
			switch {
			case err != nil:
				report.Failed = append(report.Failed, storage.SyncFailure{Key: key, Reason: err})
				s.log.Error("meta sync failed", logger.Fields(
					logger.FieldKey, key,
					logger.FieldError, err.Error(),
				))
			case updated:
				report.Updated = append(report.Updated, key)
				s.log.Info("meta synced", logger.Fields(logger.FieldKey, key))
			default:
				report.Unchanged = append(report.Unchanged, key)
				s.log.Debug("meta already current", logger.Fields(logger.FieldKey, key))
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return report, nil
}

// syncKey reconciles one object. It reports whether a header rewrite was
// issued.
func (s *Storage) syncKey(ctx context.Context, key string) (bool, error) {
	head, err := s.head(ctx, key)
	if err != nil {
		return false, err
	}

	target := s.profile.ResolveMeta(key, "")

	// The stored encoding and logical size reflect the compress decision
	// made at write time; a header-only pass must never change them.
	target.ContentEncoding = aws.ToString(head.ContentEncoding)
	if v, ok := head.Metadata[storage.MetaKeyUncompressedSize]; ok {
		if target.Metadata == nil {
			target.Metadata = make(map[string]string, 1)
		}
		target.Metadata[storage.MetaKeyUncompressedSize] = v
	}

	if metaCurrent(head, target) {
		return false, nil
	}

	copyInput := &awss3.CopyObjectInput{
		Bucket:            aws.String(s.profile.Bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(s.profile.Bucket + "/" + escapeKey(key)),
		MetadataDirective: types.MetadataDirectiveReplace,
		ContentType:       aws.String(target.ContentType),
		CacheControl:      aws.String(target.CacheControl),
	}
	applyOptionalMeta(&copyInput.ContentDisposition, target.ContentDisposition)
	applyOptionalMeta(&copyInput.ContentLanguage, target.ContentLanguage)
	if target.ContentEncoding != "" {
		copyInput.ContentEncoding = aws.String(target.ContentEncoding)
	}
	if len(target.Metadata) > 0 {
		copyInput.Metadata = target.Metadata
	}
	if target.StorageClass != "" {
		copyInput.StorageClass = types.StorageClass(target.StorageClass)
	}
	if target.Encrypt != "" {
		copyInput.ServerSideEncryption = types.ServerSideEncryption(target.Encrypt)
	}

	if _, err := s.api.CopyObject(ctx, copyInput); err != nil {
		return false, apperrors.WriteFailed(key, FromS3(err))
	}
	return true, nil
}

// metaCurrent compares an object's live headers against the recomputed
// target, field by field. Storage class and encryption are applied on
// update but not diffed: HEAD reports them unreliably across stores
// (an empty class means the default class).
func metaCurrent(head *awss3.HeadObjectOutput, target storage.ObjectMeta) bool {
	if aws.ToString(head.ContentType) != target.ContentType {
		return false
	}
	if aws.ToString(head.CacheControl) != target.CacheControl {
		return false
	}
	if aws.ToString(head.ContentDisposition) != target.ContentDisposition {
		return false
	}
	if aws.ToString(head.ContentLanguage) != target.ContentLanguage {
		return false
	}
	if aws.ToString(head.ContentEncoding) != target.ContentEncoding {
		return false
	}
	if len(head.Metadata) != len(target.Metadata) {
		return false
	}
	for k, v := range target.Metadata {
		if head.Metadata[k] != v {
			return false
		}
	}
	return true
}
