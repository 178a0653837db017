package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"Playdeck/logger"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures a MinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string // Key prefix, e.g. "music/"
}

// MinioStore keeps files as objects under a prefix of one bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
	policy Policy
}

// BucketStats summarises the objects under the store prefix.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// NewMinioStore connects to MinIO and creates the bucket if it is missing.
func NewMinioStore(ctx context.Context, opts MinioOptions, policy Policy) (*MinioStore, error) {
	logger.Info("connecting to MinIO",
		logger.String("endpoint", opts.Endpoint),
		logger.String("bucket", opts.Bucket),
		logger.String("prefix", opts.Prefix))

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", opts.Bucket))
	}

	prefix := strings.TrimPrefix(opts.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &MinioStore{client: client, bucket: opts.Bucket, prefix: prefix, policy: policy}, nil
}

func (s *MinioStore) key(fileID string) string {
	return s.prefix + fileID
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Store implements TrackStore. Name collisions are resolved with a stat
// probe, which is not atomic across concurrent writers.
func (s *MinioStore) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	safe, err := s.policy.prepare(filename)
	if err != nil {
		return "", err
	}

	fileID := ""
	for n := 0; n < maxNameAttempts; n++ {
		candidate := numbered(safe, n)
		_, err := s.client.StatObject(ctx, s.bucket, s.key(candidate), minio.StatObjectOptions{})
		if err != nil && isNoSuchKey(err) {
			fileID = candidate
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to check object %s: %w", candidate, err)
		}
	}
	if fileID == "" {
		return "", fmt.Errorf("no free object name for %s after %d attempts", safe, maxNameAttempts)
	}

	info, err := s.client.PutObject(ctx, s.bucket, s.key(fileID), limitedReader(ctx, r, s.policy.MaxBytes), -1,
		minio.PutObjectOptions{ContentType: ContentTypeFor(fileID)})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileID, err)
	}
	if s.policy.MaxBytes > 0 && info.Size > s.policy.MaxBytes {
		if rmErr := s.client.RemoveObject(ctx, s.bucket, s.key(fileID), minio.RemoveObjectOptions{}); rmErr != nil {
			logger.Warn("failed to remove oversize object", logger.String("file", fileID), logger.ErrorField(rmErr))
		}
		return "", fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.IBytes(uint64(s.policy.MaxBytes)))
	}

	logger.Info("stored audio object",
		logger.String("file", fileID),
		logger.String("size", humanize.IBytes(uint64(info.Size))))
	return fileID, nil
}

// Open implements TrackStore.
func (s *MinioStore) Open(ctx context.Context, fileID string) (*Object, error) {
	if err := checkID(fileID); err != nil {
		return nil, err
	}
	st, err := s.client.StatObject(ctx, s.bucket, s.key(fileID), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", fileID, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(fileID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fileID, err)
	}
	return &Object{ReadSeekCloser: obj, Info: s.info(fileID, st)}, nil
}

// Delete implements TrackStore.
func (s *MinioStore) Delete(ctx context.Context, fileID string) error {
	if err := checkID(fileID); err != nil {
		return err
	}
	// RemoveObject succeeds for missing keys.
	if _, err := s.client.StatObject(ctx, s.bucket, s.key(fileID), minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return fmt.Errorf("failed to stat %s: %w", fileID, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(fileID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileID, err)
	}
	logger.Info("deleted audio object", logger.String("file", fileID))
	return nil
}

// List implements TrackStore. Only direct children of the prefix are listed.
func (s *MinioStore) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		fileID := strings.TrimPrefix(object.Key, s.prefix)
		if fileID == "" || strings.Contains(fileID, "/") || !s.policy.Allowed(fileID) {
			continue
		}
		files = append(files, s.info(fileID, object))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

// Stats walks the prefix and totals object sizes.
func (s *MinioStore) Stats(ctx context.Context) (*BucketStats, error) {
	stats := &BucketStats{}
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
	}
	return stats, nil
}

// Location returns bucket/prefix for display.
func (s *MinioStore) Location() string {
	return path.Join(s.bucket, s.prefix) + "/"
}

func (s *MinioStore) info(fileID string, object minio.ObjectInfo) FileInfo {
	contentType := object.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentTypeFor(fileID)
	}
	return FileInfo{
		ID:          fileID,
		Size:        object.Size,
		ModTime:     object.LastModified,
		ContentType: contentType,
	}
}
