package metadata

import (
	"context"

	"Playdeck/logger"
	"Playdeck/model"
)

// Cache is the storage CachedExtractor memoises into.
// cache.MetadataCache satisfies it.
type Cache interface {
	Get(ctx context.Context, fileID string) (model.Metadata, bool, error)
	Set(ctx context.Context, fileID string, meta model.Metadata) error
	Delete(ctx context.Context, fileID string) error
}

// CachedExtractor consults a cache before delegating to another Extractor.
// Cache failures are logged and otherwise ignored.
type CachedExtractor struct {
	next  Extractor
	cache Cache
}

// NewCachedExtractor wraps next with cache.
func NewCachedExtractor(next Extractor, cache Cache) *CachedExtractor {
	return &CachedExtractor{next: next, cache: cache}
}

// Extract implements Extractor. Unavailable results are not cached.
func (c *CachedExtractor) Extract(ctx context.Context, fileID string) (model.Metadata, bool) {
	meta, hit, err := c.cache.Get(ctx, fileID)
	if err != nil {
		logger.Warn("metadata cache read failed", logger.String("file", fileID), logger.ErrorField(err))
	} else if hit {
		return meta, true
	}

	meta, ok := c.next.Extract(ctx, fileID)
	if !ok {
		return meta, false
	}
	if err := c.cache.Set(ctx, fileID, meta); err != nil {
		logger.Warn("metadata cache write failed", logger.String("file", fileID), logger.ErrorField(err))
	}
	return meta, true
}

// Invalidate drops any cached entry for fileID.
func (c *CachedExtractor) Invalidate(ctx context.Context, fileID string) {
	if err := c.cache.Delete(ctx, fileID); err != nil {
		logger.Warn("metadata cache invalidation failed", logger.String("file", fileID), logger.ErrorField(err))
	}
}
