package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Playdeck/model"

	"github.com/redis/go-redis/v9"
)

// MetadataCache stores extracted metadata as JSON keyed by file identifier.
type MetadataCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewMetadataCache returns a cache whose entries expire after ttl.
// A ttl of zero keeps entries until they are deleted.
func NewMetadataCache(client redis.Cmdable, ttl time.Duration) *MetadataCache {
	return &MetadataCache{client: client, ttl: ttl}
}

// MetadataKey returns the Redis key for fileID.
func MetadataKey(fileID string) string {
	return "metadata:" + fileID
}

// Get returns the cached metadata for fileID. ok is false on a miss.
func (c *MetadataCache) Get(ctx context.Context, fileID string) (meta model.Metadata, ok bool, err error) {
	data, err := c.client.Get(ctx, MetadataKey(fileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Metadata{}, false, nil
	}
	if err != nil {
		return model.Metadata{}, false, fmt.Errorf("failed to get cached metadata for %s: %w", fileID, err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return model.Metadata{}, false, fmt.Errorf("failed to decode cached metadata for %s: %w", fileID, err)
	}
	return meta, true, nil
}

// Set caches meta for fileID.
func (c *MetadataCache) Set(ctx context.Context, fileID string, meta model.Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for %s: %w", fileID, err)
	}
	if err := c.client.Set(ctx, MetadataKey(fileID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache metadata for %s: %w", fileID, err)
	}
	return nil
}

// Delete drops the cached entry for fileID, if any.
func (c *MetadataCache) Delete(ctx context.Context, fileID string) error {
	if err := c.client.Del(ctx, MetadataKey(fileID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached metadata for %s: %w", fileID, err)
	}
	return nil
}
