package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage provides an abstraction over key-value style file storage rooted
// at a single directory (or bucket prefix). Paths are slash separated and
// relative to that root.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	// DeleteAll removes path and everything below it. A missing path is not an error.
	DeleteAll(ctx context.Context, path string) error
	// List returns the files directly under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// ListDirs returns the names of the directories directly under prefix.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Locator is implemented by storages backed by the local filesystem.
type Locator interface {
	LocalPath(path string) string
}
