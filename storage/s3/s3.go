// Package s3 implements the storage contract over Amazon S3 and
// S3-compatible services using aws-sdk-go-v2.
package s3

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"

	apperrors "github.com/kbukum/s3fs/errors"
	"github.com/kbukum/s3fs/logger"
	"github.com/kbukum/s3fs/storage"
)

func init() {
	storage.RegisterFactory(storage.DefaultProvider, func(profile *storage.Profile, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(context.Background(), profile, nil, log)
	})
}

// Storage implements storage.Storage using Amazon S3 (or S3-compatible
// services).
type Storage struct {
	api     ObjectAPI
	presign PresignAPI
	profile *storage.Profile
	log     *logger.Logger

	// endpoint is the base endpoint used when building public URLs.
	endpoint string
}

// NewStorage creates a new S3 storage engine for the given profile. cfg may
// be nil, in which case the AWS default credential chain is used.
func NewStorage(ctx context.Context, profile *storage.Profile, cfg *Config, log *logger.Logger) (*Storage, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Configuration(err.Error())
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(profile.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if profile.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(profile.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	client := awss3.NewFromConfig(awsCfg, s3Opts...)
	s := newStorage(client, awss3.NewPresignClient(client), profile, log)

	if profile.Signed() && profile.PublicURLBase != "" {
		// Explicitly opted in via AllowPublicBaseWithAuth: URLs are built
		// from the public base while objects stay private.
		s.log.Warn("public_url_base combined with signed auth; URLs will not carry signatures",
			logger.Fields(logger.FieldProfile, profile.Name))
	}
	return s, nil
}

// newStorage wires an engine from explicit capabilities. Tests use this
// with fakes.
func newStorage(api ObjectAPI, presign PresignAPI, profile *storage.Profile, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.Nop()
	}
	endpoint := profile.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", profile.Region)
	}
	return &Storage{
		api:      api,
		presign:  presign,
		profile:  profile,
		log:      log.WithComponent("s3"),
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

// Profile returns the profile this engine is parameterized by.
func (s *Storage) Profile() *storage.Profile { return s.profile }

// Open returns a reader for the object at the given path. Objects stored
// gzip-encoded are transparently decoded.
func (s *Storage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := s.profile.Key(path)
	if err != nil {
		return nil, err
	}
	out, err := s.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.profile.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if appErr := FromS3(err); apperrors.IsNotFound(appErr) {
			return nil, apperrors.NotFound(key)
		}
		return nil, apperrors.ReadFailed(key, FromS3(err))
	}
	if aws.ToString(out.ContentEncoding) == storage.ContentEncodingGzip {
		zr, err := gzip.NewReader(out.Body)
		if err != nil {
			out.Body.Close()
			return nil, apperrors.ReadFailed(key, err)
		}
		return &gzipReadCloser{zr: zr, body: out.Body}, nil
	}
	return out.Body, nil
}

// gzipReadCloser decodes a gzip body and closes both the decoder and the
// underlying stream.
type gzipReadCloser struct {
	zr   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	berr := g.body.Close()
	if zerr != nil {
		return zerr
	}
	return berr
}

// Delete removes the object at the given path.
func (s *Storage) Delete(ctx context.Context, path string) error {
	key, err := s.profile.Key(path)
	if err != nil {
		return err
	}
	if _, err := s.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.profile.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return apperrors.WriteFailed(key, FromS3(err))
	}
	s.log.Debug("deleted object", logger.Fields(logger.FieldKey, key))
	return nil
}

// Exists reports whether an object exists at the given path. Not-found is a
// normal false result; only genuine transport or permission failures error.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := s.profile.Key(path)
	if err != nil {
		return false, err
	}
	if _, err := s.head(ctx, key); err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListDir lists the single level under path. Keys with further slashes
// beyond the prefix fold into one subdirectory entry. The bucket root of an
// empty bucket yields two empty slices, never an error.
func (s *Storage) ListDir(ctx context.Context, path string) ([]string, []string, error) {
	prefix := s.dirPrefix(path)

	dirs := []string{}
	files := []string{}
	input := &awss3.ListObjectsV2Input{
		Bucket:    aws.String(s.profile.Bucket),
		Delimiter: aws.String("/"),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	for {
		out, err := s.api.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, nil, apperrors.ReadFailed(prefix, FromS3(err))
		}
		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name != "" {
				dirs = append(dirs, name)
			}
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" {
				files = append(files, name)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// dirPrefix converts a listing path into an object-key prefix ending in
// "/". Unlike object paths, an empty or root path is valid here: it lists
// the top level under the profile's key prefix.
func (s *Storage) dirPrefix(path string) string {
	key, err := storage.NormalizeKey(path)
	if err != nil {
		// The path resolves to the virtual root.
		key = ""
	}
	prefix := storage.JoinPrefix(s.profile.KeyPrefix, key)
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Size returns the logical size of the object in bytes. For gzip-encoded
// objects this is the uncompressed length persisted as metadata at upload
// time, not the transferred byte count.
func (s *Storage) Size(ctx context.Context, path string) (int64, error) {
	key, err := s.profile.Key(path)
	if err != nil {
		return 0, err
	}
	head, err := s.head(ctx, key)
	if err != nil {
		return 0, err
	}
	if aws.ToString(head.ContentEncoding) == storage.ContentEncodingGzip {
		if v, ok := head.Metadata[storage.MetaKeyUncompressedSize]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, nil
			}
		}
		// Objects written before the size metadata existed: fall back to
		// the stored length.
		s.log.Warn("gzip object missing uncompressed-size metadata",
			logger.Fields(logger.FieldKey, key))
	}
	return aws.ToInt64(head.ContentLength), nil
}

// ModifiedTime returns the last-modified time of the object in UTC.
func (s *Storage) ModifiedTime(ctx context.Context, path string) (time.Time, error) {
	key, err := s.profile.Key(path)
	if err != nil {
		return time.Time{}, err
	}
	head, err := s.head(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	return aws.ToTime(head.LastModified).UTC(), nil
}

// head probes one object's metadata, mapping not-found to the NOT_FOUND
// taxonomy code.
func (s *Storage) head(ctx context.Context, key string) (*awss3.HeadObjectOutput, error) {
	out, err := s.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.profile.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if appErr := FromS3(err); apperrors.IsNotFound(appErr) {
			return nil, apperrors.NotFound(key)
		}
		return nil, apperrors.ReadFailed(key, FromS3(err))
	}
	return out, nil
}

// compile-time checks
var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Syncer  = (*Storage)(nil)
)
