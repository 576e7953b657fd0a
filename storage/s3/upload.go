package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/kbukum/s3fs/errors"
	"github.com/kbukum/s3fs/logger"
	"github.com/kbukum/s3fs/resilience"
	"github.com/kbukum/s3fs/storage"
)

const (
	// partSize is the size of one multipart chunk. Each chunk is held
	// fully in memory, never the whole payload.
	partSize = 8 << 20

	// multipartThreshold is the payload size above which uploads switch
	// to chunked multipart transfer. It also bounds the buffer used for
	// the compress-before-store decision.
	multipartThreshold = 16 << 20

	// partParallelism bounds concurrent part uploads for a single file.
	// Peak memory per upload is roughly (partParallelism+1) * partSize.
	partParallelism = 4

	// partRetryAttempts is the number of attempts per chunk (including
	// the first) before the whole multipart session is aborted.
	partRetryAttempts = 3

	// availableKeyAttempts bounds the overwrite-avoidance key search.
	availableKeyAttempts = 10
)

// UploadResult describes a completed upload.
type UploadResult struct {
	// Key is the normalized, prefix-free key the object was stored under.
	Key string
	// ETag is the store's integrity token for the object.
	ETag string
	// Size is the logical (pre-compression) byte length.
	Size int64
}

// Save writes data from reader to the given path and returns the key the
// object was stored under. The content type is sniffed from the path.
func (s *Storage) Save(ctx context.Context, path string, reader io.Reader) (string, error) {
	res, err := s.Upload(ctx, path, reader, "")
	if err != nil {
		return "", err
	}
	return res.Key, nil
}

// Upload streams a payload to the store, applying the profile's metadata
// and compression policy. Payloads above the multipart threshold, or whose
// length is unknown in advance, are transferred in chunks with bounded
// memory. contentType may be empty, in which case it is sniffed from the
// path.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader, contentType string) (*UploadResult, error) {
	name, err := storage.NormalizeKey(path)
	if err != nil {
		return nil, err
	}
	if !s.profile.Overwrite {
		name, err = s.availableName(ctx, name)
		if err != nil {
			return nil, err
		}
	}
	key := storage.JoinPrefix(s.profile.KeyPrefix, name)
	meta := s.profile.ResolveMeta(key, contentType)

	// Buffer up to the multipart threshold. If the payload ends within the
	// buffer we know its full length and can afford the compression
	// measurement; otherwise it streams as chunks, uncompressed.
	head, err := io.ReadAll(io.LimitReader(reader, multipartThreshold+1))
	if err != nil {
		return nil, apperrors.WriteFailed(key, err)
	}

	var res *UploadResult
	if len(head) <= multipartThreshold {
		res, err = s.putSingle(ctx, key, meta, head)
	} else {
		res, err = s.putMultipart(ctx, key, meta, io.MultiReader(bytes.NewReader(head), reader))
	}
	if err != nil {
		return nil, err
	}
	res.Key = name
	s.log.Debug("uploaded object", logger.Fields(
		logger.FieldKey, key,
		logger.FieldSize, res.Size,
	))
	return res, nil
}

// putSingle uploads a fully buffered payload with one atomic put, applying
// the compress-before-store decision first.
func (s *Storage) putSingle(ctx context.Context, key string, meta storage.ObjectMeta, data []byte) (*UploadResult, error) {
	logicalSize := int64(len(data))

	if s.profile.ShouldCompress(meta.ContentType) {
		if encoded, ok := storage.CompressPayload(data); ok {
			data = encoded
			meta.ContentEncoding = storage.ContentEncodingGzip
			if meta.Metadata == nil {
				meta.Metadata = make(map[string]string, 1)
			}
			meta.Metadata[storage.MetaKeyUncompressedSize] = strconv.FormatInt(logicalSize, 10)
		}
	}

	input := s.putInput(key, meta)
	out, err := resilience.Retry(ctx, s.retryConfig(), func() (*awss3.PutObjectOutput, error) {
		input.Body = bytes.NewReader(data)
		return s.api.PutObject(ctx, input)
	})
	if err != nil {
		return nil, apperrors.WriteFailed(key, FromS3(err))
	}
	return &UploadResult{ETag: aws.ToString(out.ETag), Size: logicalSize}, nil
}

// putMultipart streams the payload as fixed-size chunks. Chunks are
// dispatched with bounded parallelism and committed in part-number order;
// a chunk that fails every retry aborts the whole session so no
// server-side state is leaked.
func (s *Storage) putMultipart(ctx context.Context, key string, meta storage.ObjectMeta, reader io.Reader) (*UploadResult, error) {
	createInput := &awss3.CreateMultipartUploadInput{
		Bucket:       aws.String(s.profile.Bucket),
		Key:          aws.String(key),
		ContentType:  aws.String(meta.ContentType),
		CacheControl: aws.String(meta.CacheControl),
	}
	applyOptionalMeta(&createInput.ContentDisposition, meta.ContentDisposition)
	applyOptionalMeta(&createInput.ContentLanguage, meta.ContentLanguage)
	if len(meta.Metadata) > 0 {
		createInput.Metadata = meta.Metadata
	}
	if meta.StorageClass != "" {
		createInput.StorageClass = types.StorageClass(meta.StorageClass)
	}
	if meta.Encrypt != "" {
		createInput.ServerSideEncryption = types.ServerSideEncryption(meta.Encrypt)
	}

	created, err := s.api.CreateMultipartUpload(ctx, createInput)
	if err != nil {
		return nil, apperrors.WriteFailed(key, FromS3(err))
	}
	uploadID := aws.ToString(created.UploadId)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(partParallelism)

	var (
		mu          sync.Mutex
		completed   []types.CompletedPart
		total       int64
		readFailure error
	)

	partNumber := int32(0)
	for {
		if gctx.Err() != nil {
			break
		}
		chunk := make([]byte, partSize)
		n, readErr := io.ReadFull(reader, chunk)
		if readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			readFailure = readErr
			break
		}
		partNumber++
		total += int64(n)
		num := partNumber
		body := chunk[:n]

		// Go blocks while partParallelism chunks are in flight, which
		// bounds the number of live chunk buffers.
		g.Go(func() error {
			etag, err := s.uploadPart(gctx, key, uploadID, num, body)
			if err != nil {
				return err
			}
			mu.Lock()
			completed = append(completed, types.CompletedPart{
				ETag:       aws.String(etag),
				PartNumber: aws.Int32(num),
			})
			mu.Unlock()
			return nil
		})

		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}

	if err := g.Wait(); err != nil {
		s.abortMultipart(ctx, key, uploadID)
		return nil, apperrors.WriteFailed(key, FromS3(err))
	}
	if readFailure != nil {
		s.abortMultipart(ctx, key, uploadID)
		return nil, apperrors.WriteFailed(key, readFailure)
	}

	// Chunk order is reconstructed by sequence number, not arrival order.
	sort.Slice(completed, func(i, j int) bool {
		return aws.ToInt32(completed[i].PartNumber) < aws.ToInt32(completed[j].PartNumber)
	})

	out, err := s.api.CompleteMultipartUpload(ctx, &awss3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.profile.Bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		s.abortMultipart(ctx, key, uploadID)
		return nil, apperrors.WriteFailed(key, FromS3(err))
	}

	s.log.Debug("multipart upload complete", logger.Fields(
		logger.FieldKey, key,
		logger.FieldParts, len(completed),
		logger.FieldSize, total,
	))
	return &UploadResult{ETag: aws.ToString(out.ETag), Size: total}, nil
}

// uploadPart transfers one chunk, retrying transient failures with backoff.
func (s *Storage) uploadPart(ctx context.Context, key, uploadID string, num int32, body []byte) (string, error) {
	cfg := s.retryConfig()
	cfg.MaxAttempts = partRetryAttempts
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.log.Warn("retrying part upload", logger.Fields(
			logger.FieldKey, key,
			logger.FieldParts, num,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
		))
	}
	out, err := resilience.Retry(ctx, cfg, func() (*awss3.UploadPartOutput, error) {
		return s.api.UploadPart(ctx, &awss3.UploadPartInput{
			Bucket:     aws.String(s.profile.Bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(num),
			Body:       bytes.NewReader(body),
		})
	})
	if err != nil {
		return "", fmt.Errorf("part %d: %w", num, err)
	}
	return aws.ToString(out.ETag), nil
}

// abortMultipart releases server-side multipart state. It runs even when
// the surrounding context is already cancelled; a dangling session is a
// resource leak.
func (s *Storage) abortMultipart(ctx context.Context, key, uploadID string) {
	if _, err := s.api.AbortMultipartUpload(context.WithoutCancel(ctx), &awss3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.profile.Bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}); err != nil {
		s.log.Error("failed to abort multipart upload", logger.Fields(
			logger.FieldKey, key,
			logger.FieldError, err.Error(),
		))
	}
}

// putInput builds a PutObject input from resolved metadata. The body is
// attached by the caller, per attempt.
func (s *Storage) putInput(key string, meta storage.ObjectMeta) *awss3.PutObjectInput {
	input := &awss3.PutObjectInput{
		Bucket:       aws.String(s.profile.Bucket),
		Key:          aws.String(key),
		ContentType:  aws.String(meta.ContentType),
		CacheControl: aws.String(meta.CacheControl),
	}
	applyOptionalMeta(&input.ContentDisposition, meta.ContentDisposition)
	applyOptionalMeta(&input.ContentLanguage, meta.ContentLanguage)
	if meta.ContentEncoding != "" {
		input.ContentEncoding = aws.String(meta.ContentEncoding)
	}
	if len(meta.Metadata) > 0 {
		input.Metadata = meta.Metadata
	}
	if meta.StorageClass != "" {
		input.StorageClass = types.StorageClass(meta.StorageClass)
	}
	if meta.Encrypt != "" {
		input.ServerSideEncryption = types.ServerSideEncryption(meta.Encrypt)
	}
	return input
}

func applyOptionalMeta(dst **string, value string) {
	if value != "" {
		*dst = aws.String(value)
	}
}

// availableName returns a key that is not currently taken, appending a
// short disambiguating suffix before the extension when needed. The
// check-then-write is best-effort: a concurrent writer may still race it.
func (s *Storage) availableName(ctx context.Context, name string) (string, error) {
	candidate := name
	for i := 0; i < availableKeyAttempts; i++ {
		taken, err := s.keyExists(ctx, storage.JoinPrefix(s.profile.KeyPrefix, candidate))
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		candidate = fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext)
	}
	return "", apperrors.WriteFailed(name, fmt.Errorf("no available key after %d attempts", availableKeyAttempts))
}

// keyExists probes a fully-resolved object key.
func (s *Storage) keyExists(ctx context.Context, key string) (bool, error) {
	if _, err := s.head(ctx, key); err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// retryConfig is the per-request retry policy for transient store errors.
func (s *Storage) retryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = retryableS3
	return cfg
}
