package storage

import (
	"bytes"
	"context"
	"io"
)

// ByteClient provides a []byte-oriented interface for storage operations.
// This is useful for callers that work with in-memory data rather than
// streams.
type ByteClient interface {
	// Save stores data at the given path and returns the stored key.
	Save(ctx context.Context, path string, data []byte) (string, error)

	// Read retrieves the full decoded contents of the object at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes the object at the given path.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// byteAdapter wraps a streaming Storage and implements ByteClient.
type byteAdapter struct {
	storage Storage
}

// NewByteClient wraps a streaming Storage implementation with []byte
// convenience methods.
func NewByteClient(s Storage) ByteClient {
	return &byteAdapter{storage: s}
}

func (a *byteAdapter) Save(ctx context.Context, path string, data []byte) (string, error) {
	return a.storage.Save(ctx, path, bytes.NewReader(data))
}

func (a *byteAdapter) Read(ctx context.Context, path string) ([]byte, error) {
	rc, err := a.storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (a *byteAdapter) Delete(ctx context.Context, path string) error {
	return a.storage.Delete(ctx, path)
}

func (a *byteAdapter) Exists(ctx context.Context, path string) (bool, error) {
	return a.storage.Exists(ctx, path)
}
