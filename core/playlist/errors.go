package playlist

import "errors"

var (
	// ErrEmptyPlaylist is returned by cursor operations on a playlist with no tracks.
	ErrEmptyPlaylist = errors.New("playlist is empty")
	// ErrBoundaryReached is returned when stepping past the head or tail.
	// The cursor is left where it was.
	ErrBoundaryReached = errors.New("no track beyond the current one")
	// ErrNotFound is returned when no track matches a removal request.
	ErrNotFound = errors.New("track not found in playlist")
	// ErrCorrupted reports a broken chain or cursor. It is never a user error.
	ErrCorrupted = errors.New("playlist structure corrupted")
)
