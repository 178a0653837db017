// Package storage keeps uploaded audio files and hands back opaque file
// identifiers. Two backends exist: a local directory and a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDisallowedType is returned for files whose extension is not allowed.
	ErrDisallowedType = errors.New("file type not allowed")
	// ErrTooLarge is returned when a payload exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrNotFound is returned for unknown file identifiers.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName is returned for identifiers that could escape the store.
	ErrInvalidName = errors.New("invalid file name")
)

// FileInfo describes one stored file.
type FileInfo struct {
	ID          string    `json:"file"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
	ContentType string    `json:"contentType"`
}

// Object is an open stored file. Callers must Close it.
type Object struct {
	io.ReadSeekCloser
	Info FileInfo
}

// TrackStore persists audio files.
type TrackStore interface {
	// Store saves the contents of r under a sanitised, unique name derived
	// from filename and returns that name as the file identifier.
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
	// Open returns a seekable reader over a stored file.
	Open(ctx context.Context, fileID string) (*Object, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, fileID string) error
	// List returns all stored audio files sorted by identifier.
	List(ctx context.Context) ([]FileInfo, error)
}
