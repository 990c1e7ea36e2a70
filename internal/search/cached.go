package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopscout-ai/shopscout/internal/cache"
	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// CachedProvider wraps a Provider with response caching. Cache failures are
// logged and bypassed: the provider is always the source of truth.
type CachedProvider struct {
	provider Provider
	cache    cache.Client
	logger   *observability.Logger
	ttl      time.Duration
}

// NewCachedProvider creates a caching wrapper around the given provider.
func NewCachedProvider(provider Provider, cacheClient cache.Client, logger *observability.Logger, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{
		provider: provider,
		cache:    cacheClient,
		logger:   logger.WithComponent("search-cache"),
		ttl:      ttl,
	}
}

// cacheKey builds a deterministic key for one search request.
func cacheKey(req Request) string {
	return fmt.Sprintf("serpapi:shopping:%s:%s:%s:%s:%v:%v",
		req.Query, req.CountryCode, req.LanguageCode, req.Currency, req.MinPrice, req.MaxPrice)
}

// Search returns cached results when available, otherwise delegates to the
// wrapped provider and stores the outcome.
func (p *CachedProvider) Search(ctx context.Context, req Request) (*Response, error) {
	key := cacheKey(req)

	if data, err := p.cache.Get(ctx, key); err == nil {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			p.logger.Debug().Str("query", req.Query).Msg("Search cache hit")
			return &resp, nil
		}
		p.logger.Warn().Str("key", key).Msg("Discarding unreadable cached search result")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		p.logger.Warn().Err(err).Msg("Cache unavailable, querying provider directly")
	}

	resp, err := p.provider.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to cache search result")
		}
	}

	return resp, nil
}

// ProductDetails passes through to the wrapped provider. Details are cached
// in the database by the orchestrator, not here.
func (p *CachedProvider) ProductDetails(ctx context.Context, detailURL string) (*catalog.ProductDetails, error) {
	return p.provider.ProductDetails(ctx, detailURL)
}
