// Package storage persists dashboard snapshots.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned for a path that does not exist in the store
var ErrNotFound = errors.New("file not found")

// ErrInvalidPath is returned for paths escaping the store root
var ErrInvalidPath = errors.New("invalid path")

// Store defines the operations snapshots need
type Store interface {
	// StoreFile writes a file at the path relative to the store root
	StoreFile(ctx context.Context, filePath string, fileData []byte) error

	// GetFile reads a file relative to the store root
	GetFile(ctx context.Context, filePath string) ([]byte, error)

	// ListSnapshots returns snapshot folders, newest first
	ListSnapshots(ctx context.Context, limit int) ([]string, error)
}
