package storage

import (
	"strings"

	apperrors "github.com/kbukum/s3fs/errors"
)

// NormalizeKey converts an arbitrary input path into a canonical object key:
// forward-slash delimited, no leading slash, no "." or ".." segments.
// Windows-style and Unix-style paths normalize to the same key. Segments
// that would climb above the virtual root are discarded rather than
// rejected; the only failure mode is a path that resolves to the empty key.
//
// NormalizeKey is idempotent: NormalizeKey(NormalizeKey(k)) == NormalizeKey(k).
func NormalizeKey(path string) (string, error) {
	clean := strings.ReplaceAll(path, `\`, "/")

	segments := make([]string, 0, strings.Count(clean, "/")+1)
	for _, seg := range strings.Split(clean, "/") {
		switch seg {
		case "", ".":
			// Repeated separators and self references collapse away.
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
			// A ".." at the root is discarded, not an error.
		default:
			segments = append(segments, seg)
		}
	}

	key := strings.Join(segments, "/")
	if key == "" {
		return "", apperrors.InvalidKey(path, "path resolves to the storage root")
	}
	return key, nil
}

// JoinPrefix joins a configured key prefix with a normalized key. An empty
// prefix is a no-op. The prefix itself is normalized so configuration
// values like "/uploads/" and "uploads" behave identically.
func JoinPrefix(prefix, key string) string {
	prefix = strings.Trim(strings.ReplaceAll(prefix, `\`, "/"), "/")
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "/" + key
}
