// Package storage defines interfaces for photo storage backends.
// The storage layer persists uploaded bootcamp photos under the filename
// chosen by the service layer; implementations cover the local filesystem
// and S3-compatible object stores.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrFileNotFound is returned when a stored file does not exist.
var ErrFileNotFound = errors.New("file not found")

// Backend defines the interface for photo storage backends.
type Backend interface {
	// Store persists content under the given filename, replacing any
	// existing file with the same name.
	Store(ctx context.Context, filename string, reader io.Reader, size int64) error

	// Retrieve opens a stored file. The caller must close the reader.
	// Returns ErrFileNotFound if the file does not exist.
	Retrieve(ctx context.Context, filename string) (io.ReadCloser, error)

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, filename string) error

	// Exists checks whether a file is stored.
	Exists(ctx context.Context, filename string) (bool, error)
}
