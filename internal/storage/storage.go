// Package storage provides blob storage backends for uploaded files.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist in the store.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists file contents under opaque keys. Implementations
// must treat Delete of a missing key as success.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
