package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"Playdeck/logger"

	"github.com/dustin/go-humanize"
)

// maxNameAttempts bounds the duplicate-name counter.
const maxNameAttempts = 10000

// LocalStore keeps files in a single flat directory.
type LocalStore struct {
	dir    string
	policy Policy
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir string, policy Policy) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, policy: policy}, nil
}

// Dir returns the directory the store writes to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Store implements TrackStore.
func (s *LocalStore) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	safe, err := s.policy.prepare(filename)
	if err != nil {
		return "", err
	}

	f, fileID, err := s.createUnique(safe)
	if err != nil {
		return "", err
	}
	destPath := f.Name()

	written, copyErr := io.Copy(f, limitedReader(ctx, r, s.policy.MaxBytes))
	closeErr := f.Close()
	if copyErr == nil && s.policy.MaxBytes > 0 && written > s.policy.MaxBytes {
		copyErr = fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.IBytes(uint64(s.policy.MaxBytes)))
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(destPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warn("failed to remove partial upload", logger.String("path", destPath), logger.ErrorField(rmErr))
		}
		if errors.Is(copyErr, ErrTooLarge) || errors.Is(copyErr, context.Canceled) || errors.Is(copyErr, context.DeadlineExceeded) {
			return "", copyErr
		}
		return "", fmt.Errorf("failed to write %s: %w", destPath, copyErr)
	}

	logger.Info("stored audio file",
		logger.String("file", fileID),
		logger.String("size", humanize.IBytes(uint64(written))))
	return fileID, nil
}

// createUnique opens a new file named safe, or safe with a _n counter when
// that name is taken.
func (s *LocalStore) createUnique(safe string) (*os.File, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		name := numbered(safe, n)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", name, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s after %d attempts", safe, maxNameAttempts)
}

// Open implements TrackStore.
func (s *LocalStore) Open(ctx context.Context, fileID string) (*Object, error) {
	if err := checkID(fileID); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, fileID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to open %s: %w", fileID, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", fileID, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	return &Object{ReadSeekCloser: f, Info: s.info(fileID, st)}, nil
}

// Delete implements TrackStore.
func (s *LocalStore) Delete(ctx context.Context, fileID string) error {
	if err := checkID(fileID); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, fileID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return fmt.Errorf("failed to delete %s: %w", fileID, err)
	}
	logger.Info("deleted audio file", logger.String("file", fileID))
	return nil
}

// List implements TrackStore. Files with disallowed extensions are skipped.
func (s *LocalStore) List(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.dir, err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !s.policy.Allowed(entry.Name()) {
			continue
		}
		st, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files = append(files, s.info(entry.Name(), st))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

func (s *LocalStore) info(fileID string, st fs.FileInfo) FileInfo {
	return FileInfo{
		ID:          fileID,
		Size:        st.Size(),
		ModTime:     st.ModTime(),
		ContentType: ContentTypeFor(fileID),
	}
}

// limitedReader stops after limit+1 bytes so callers can detect oversize
// payloads, and fails early once ctx is done.
func limitedReader(ctx context.Context, r io.Reader, limit int64) io.Reader {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
