package storage

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ContentEncodingGzip is the content-encoding value for gzip-compressed
// objects.
const ContentEncodingGzip = "gzip"

// Compressible reports whether a content type is in the allow-list of
// text-like types worth attempting to gzip. Structured suffixes are
// honored, so image/svg+xml and application/ld+json qualify.
func Compressible(contentType string) bool {
	if contentType == "" {
		return false
	}
	family, subtype, ok := strings.Cut(strings.ToLower(contentType), "/")
	if !ok {
		return false
	}
	if family == "text" {
		return true
	}
	if i := strings.Index(subtype, ";"); i >= 0 {
		subtype = strings.TrimSpace(subtype[:i])
	}
	if i := strings.LastIndex(subtype, "+"); i >= 0 {
		subtype = subtype[i+1:]
	}
	switch subtype {
	case "xml", "json", "html", "javascript", "ecmascript", "svg":
		return true
	}
	return false
}

// ShouldCompress reports whether the compress-before-store decision applies
// for the given content type under this profile.
func (p *Profile) ShouldCompress(contentType string) bool {
	return p.Gzip && Compressible(contentType)
}

// CompressPayload gzip-encodes data into a buffer and returns the encoded
// bytes only if they are strictly smaller than the input. The decision is
// made by actually compressing, not estimating, because the byte savings
// determine both the flag and the bytes that go on the wire.
func CompressPayload(data []byte) ([]byte, bool) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, false
	}
	if _, err := zw.Write(data); err != nil {
		return nil, false
	}
	if err := zw.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(data) {
		// Gzip made it bigger. Send the original.
		return nil, false
	}
	return buf.Bytes(), true
}
