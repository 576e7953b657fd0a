package storage

import (
	"bytes"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestCompressible(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/plain", true},
		{"text/html", true},
		{"text/css", true},
		{"application/json", true},
		{"application/javascript", true},
		{"application/xml", true},
		{"application/ld+json", true},
		{"image/svg+xml", true},
		{"text/plain; charset=utf-8", true},
		{"application/octet-stream", false},
		{"image/png", false},
		{"video/mp4", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := Compressible(tt.contentType); got != tt.want {
			t.Errorf("Compressible(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestShouldCompress_ProfileGate(t *testing.T) {
	p := &Profile{Gzip: false}
	if p.ShouldCompress("text/plain") {
		t.Error("gzip-disabled profile must never compress")
	}
	p.Gzip = true
	if !p.ShouldCompress("text/plain") {
		t.Error("gzip-enabled profile should compress text")
	}
	if p.ShouldCompress("image/png") {
		t.Error("binary types must not compress even when gzip is on")
	}
}

func TestCompressPayload_ShrinksText(t *testing.T) {
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200))
	enc, ok := CompressPayload(data)
	if !ok {
		t.Fatal("expected compressible payload to shrink")
	}
	if len(enc) >= len(data) {
		t.Errorf("compressed %d >= original %d", len(enc), len(data))
	}

	// Round trip.
	zr, err := gzip.NewReader(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip mismatch")
	}
}

func TestCompressPayload_RefusesToGrow(t *testing.T) {
	// Random bytes do not compress; the encoded form would be larger.
	data := make([]byte, 4096)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand: %v", err)
	}
	if _, ok := CompressPayload(data); ok {
		t.Error("incompressible payload must not be gzip-encoded")
	}
}

func TestCompressPayload_Empty(t *testing.T) {
	if _, ok := CompressPayload(nil); ok {
		t.Error("empty payload must not be gzip-encoded")
	}
}
