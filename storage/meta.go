package storage

import (
	"fmt"
	"mime"
	"path"
)

// DefaultContentType is used when a key's extension is unknown.
const DefaultContentType = "application/octet-stream"

// MetaKeyUncompressedSize is the custom metadata key holding the logical
// (pre-compression) byte length of a gzip-encoded object. It is written at
// upload time and read back by Size, since the store only reports the
// transferred length.
const MetaKeyUncompressedSize = "uncompressed-size"

// ObjectMeta is the resolved, about-to-be-written header set for one key.
// It is produced fresh on every write and never mutated after resolution.
type ObjectMeta struct {
	ContentType        string
	ContentEncoding    string
	ContentDisposition string
	ContentLanguage    string
	CacheControl       string
	Metadata           map[string]string
	StorageClass       string
	Encrypt            string
}

// ResolveMeta computes the full header set for a key. Computed sources are
// invoked here, exactly once, so profile callables observe the key they are
// resolving for. Cache-Control is always derived from the profile's max-age
// and auth mode and is never settable independently.
func (p *Profile) ResolveMeta(key, contentType string) ObjectMeta {
	if contentType == "" {
		contentType = GuessContentType(key)
	}
	return ObjectMeta{
		ContentType:        contentType,
		ContentDisposition: p.ContentDisposition.Resolve(key),
		ContentLanguage:    p.ContentLanguage.Resolve(key),
		CacheControl:       p.CacheControl(),
		Metadata:           p.Metadata.Resolve(key),
		StorageClass:       p.StorageClass,
		Encrypt:            p.Encrypt,
	}
}

// CacheControl derives the Cache-Control header for the profile. Signed
// profiles serve private responses; public profiles opt in to shared
// caches.
func (p *Profile) CacheControl() string {
	privacy := "public"
	if p.Signed() {
		privacy = "private"
	}
	return fmt.Sprintf("%s, max-age=%d", privacy, p.MaxAgeSeconds)
}

// GuessContentType sniffs a content type from the key's extension, falling
// back to application/octet-stream for unknown extensions.
func GuessContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return DefaultContentType
}
