package storage

import (
	"context"
	"io"
	"net/url"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the file-storage contract exposed to host applications.
// All paths are normalized before any store call, so callers may pass
// arbitrary slash styles and redundant segments.
type Storage interface {
	// Open returns a reader for the object at the given path. Objects stored
	// gzip-encoded are transparently decoded. The caller is responsible for
	// closing the returned ReadCloser.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Save writes data from reader to the given path and returns the key the
	// object was actually stored under. The returned key differs from the
	// normalized input only when the profile forbids overwriting and the key
	// was already taken.
	Save(ctx context.Context, path string, reader io.Reader) (string, error)

	// Delete removes the object at the given path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object exists at the given path. A missing
	// object is (false, nil); only transport or permission failures error.
	Exists(ctx context.Context, path string) (bool, error)

	// ListDir lists the single level under path, returning subdirectory
	// names and file names. An empty prefix yields two empty slices.
	ListDir(ctx context.Context, path string) (dirs, files []string, err error)

	// Size returns the logical (uncompressed) size of the object in bytes.
	Size(ctx context.Context, path string) (int64, error)

	// ModifiedTime returns the last-modified time of the object in UTC.
	ModifiedTime(ctx context.Context, path string) (time.Time, error)

	// URL returns a URL for accessing the object: time-limited and signed
	// for authenticated profiles, stable and unsigned for public ones.
	// Extra query parameters are appended last and cannot override
	// parameters already present.
	URL(ctx context.Context, path string, extra url.Values) (string, error)
}

// Syncer is optionally implemented by backends that can re-apply the
// profile's current metadata to already-stored objects.
type Syncer interface {
	// SyncMeta walks every key under the profile's prefix and rewrites the
	// headers of objects whose live metadata differs from the recomputed
	// target. Object bodies are never altered.
	SyncMeta(ctx context.Context) (*SyncReport, error)
}

// SyncReport summarizes one metadata reconciliation pass.
type SyncReport struct {
	Updated   []string
	Unchanged []string
	Failed    []SyncFailure
}

// SyncFailure records one key that could not be reconciled.
type SyncFailure struct {
	Key    string
	Reason error
}

// Total returns the number of keys visited by the pass.
func (r *SyncReport) Total() int {
	return len(r.Updated) + len(r.Unchanged) + len(r.Failed)
}

// OK reports whether the pass completed without per-key failures.
func (r *SyncReport) OK() bool { return len(r.Failed) == 0 }
