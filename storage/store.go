// Package storage abstracts where uploaded media lives.
// The service only deals in named blobs; backends map names
// to a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound denotes that the named object does not exist.
var ErrNotFound = errors.New("not found")

// Store of media blobs.
type Store interface {
	Store(ctx context.Context, name string, data []byte, opts ...func(*StoreOpts)) error
	Open(ctx context.Context, name string) (*File, error)
	Delete(ctx context.Context, name string) error
}
