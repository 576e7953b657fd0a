package s3

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/kbukum/s3fs/errors"
)

// URL returns a URL for accessing the object at the given path.
//
// Signed profiles get a fresh pre-authenticated URL on every call, expiring
// after the profile's URL expiry; URLs are never cached because a stale
// signature is indistinguishable from a missing one. Public profiles get a
// stable unsigned URL, rooted at the custom public base when one is
// configured. A profile that opted into combining signed auth with a public
// base builds URLs from the base while uploads stay private.
//
// Extra query parameters are appended last and cannot override parameters
// already present, signature parameters included.
func (s *Storage) URL(ctx context.Context, path string, extra url.Values) (string, error) {
	key, err := s.profile.Key(path)
	if err != nil {
		return "", err
	}

	if s.profile.PublicURLBase != "" || !s.profile.Signed() {
		return s.publicURL(key, extra)
	}
	return s.signedURL(ctx, key, extra)
}

func (s *Storage) signedURL(ctx context.Context, key string, extra url.Values) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.profile.Bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(s.profile.URLExpiry))
	if err != nil {
		return "", apperrors.ReadFailed(key, FromS3(err))
	}
	return appendQuery(req.URL, extra)
}

func (s *Storage) publicURL(key string, extra url.Values) (string, error) {
	var raw string
	if s.profile.PublicURLBase != "" {
		raw = fmt.Sprintf("%s/%s", strings.TrimRight(s.profile.PublicURLBase, "/"), escapeKey(key))
	} else {
		raw = fmt.Sprintf("%s/%s/%s", s.endpoint, s.profile.Bucket, escapeKey(key))
	}
	return appendQuery(raw, extra)
}

// appendQuery merges extra parameters into rawURL without letting them
// shadow parameters that are already present.
func appendQuery(rawURL string, extra url.Values) (string, error) {
	if len(extra) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	q := u.Query()
	for k, vs := range extra {
		if q.Has(k) {
			continue
		}
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// escapeKey percent-encodes key segments while keeping the slashes that
// separate them.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
