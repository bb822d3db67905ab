// Package cache stores document analyses keyed by content hash so repeated
// runs over unchanged text skip the analysis request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/docquiz/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

const keyPrefix = "docquiz:v1:"

// AnalysisKey identifies an analysis by everything that influences it: the
// service that produced it and the document's title, type and text.
func AnalysisKey(provider, modelName string, doc model.SourceDocument) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, doc.Title, string(doc.DocumentType), doc.RawText} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyPrefix + "analysis:" + hex.EncodeToString(h.Sum(nil))
}

// AnalysisCache stores DocumentAnalysis values as JSON in a Cache
type AnalysisCache struct {
	cache Cache
	ttl   time.Duration
}

// NewAnalysisCache wraps c; ttl of zero uses each layer's default
func NewAnalysisCache(c Cache, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{cache: c, ttl: ttl}
}

// Get returns the cached analysis for key. Undecodable entries are misses.
func (a *AnalysisCache) Get(ctx context.Context, key string) (*model.DocumentAnalysis, bool) {
	data, ok := a.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var analysis model.DocumentAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, false
	}
	return &analysis, true
}

// Put stores an analysis under key
func (a *AnalysisCache) Put(ctx context.Context, key string, analysis *model.DocumentAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	return a.cache.Set(ctx, key, data, a.ttl)
}

// New builds the cache described by cfg: memory in front of redis when an
// address is configured, memory in front of disk otherwise.
func New(cfg model.CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		redisCache, err := NewRedisCache(cfg.RedisAddr, cfg.DiskTTL)
		if err != nil {
			return nil, err
		}
		return NewLayeredCache(NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), redisCache), nil
	}
	return NewLayeredCache(
		NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
		NewDiskCache(cfg.DiskDir, cfg.DiskTTL),
	), nil
}
