package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Filesystem stores photos as plain files under a root directory.
type Filesystem struct {
	root   string
	logger zerolog.Logger
}

// NewFilesystem creates a filesystem backend rooted at dir, creating it when
// missing.
func NewFilesystem(dir string, logger zerolog.Logger) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Filesystem{
		root:   dir,
		logger: logger.With().Str("component", "storage").Str("backend", "filesystem").Logger(),
	}, nil
}

// path resolves a filename inside the root, rejecting traversal.
func (f *Filesystem) path(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(f.root, filename), nil
}

// Store writes the content to a temporary file and renames it into place so
// readers never observe a partial write.
func (f *Filesystem) Store(ctx context.Context, filename string, reader io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := f.path(filename)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if size > 0 && written != size {
		os.Remove(tmpName)
		return fmt.Errorf("short write: got %d bytes, want %d", written, size)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize file: %w", err)
	}

	f.logger.Debug().Str("filename", filename).Int64("size", written).Msg("stored file")
	return nil
}

// Retrieve opens a stored file.
func (f *Filesystem) Retrieve(ctx context.Context, filename string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := f.path(filename)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file.
func (f *Filesystem) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := f.path(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks whether a file is stored.
func (f *Filesystem) Exists(ctx context.Context, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	target, err := f.path(filename)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// Ensure Filesystem implements Backend.
var _ Backend = (*Filesystem)(nil)
