package service

import (
	"context"
	"encoding/json"
	"time"

	"propertychat/internal/model"

	"go.uber.org/zap"
)

// SearchCache stores encoded search responses by key.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSearchIndex is a read-through cache in front of a SearchIndex. Cache
// failures are logged and never fail the search.
type CachedSearchIndex struct {
	next   SearchIndex
	cache  SearchCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSearchIndex(next SearchIndex, cache SearchCache, ttl time.Duration, logger *zap.Logger) *CachedSearchIndex {
	return &CachedSearchIndex{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedSearchIndex) Search(ctx context.Context, query model.CanonicalQuery) (*model.SearchResponse, error) {
	key := "search:" + query.Key()

	data, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("Search cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		var cached model.SearchResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			c.logger.Debug("Search cache hit", zap.String("key", key))
			return &cached, nil
		}
	}

	resp, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("Search cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}
