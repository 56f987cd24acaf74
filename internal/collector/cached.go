package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RSITracker/internal/cache"
	"RSITracker/internal/model"

	"github.com/rs/zerolog/log"
)

// CachedFetcher serves repeated requests for the same data from a cache for
// the duration of TTL. Cache failures fall through to the wrapped Fetcher.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   cache.Cache
	TTL     time.Duration
}

// NewCachedFetcher wraps f with c.
func NewCachedFetcher(f Fetcher, c cache.Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Fetcher: f, Cache: c, TTL: ttl}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() + "+cache" }

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := fmt.Sprintf("%s:bars:%s:%d", c.Fetcher.Name(), symbol, days)
	var bars []model.OHLCV
	if c.lookup(ctx, key, &bars) {
		return bars, nil
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, bars)
	return bars, nil
}

func (c *CachedFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	key := fmt.Sprintf("%s:price:%s", c.Fetcher.Name(), symbol)
	var price float64
	if c.lookup(ctx, key, &price) {
		return price, nil
	}
	price, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	c.store(ctx, key, price)
	return price, nil
}

// FetchName forwards to the wrapped fetcher when it resolves names.
func (c *CachedFetcher) FetchName(ctx context.Context, symbol string) (string, error) {
	nf, ok := c.Fetcher.(NameFetcher)
	if !ok {
		return "", nil
	}
	key := fmt.Sprintf("%s:name:%s", c.Fetcher.Name(), symbol)
	var name string
	if c.lookup(ctx, key, &name) {
		return name, nil
	}
	name, err := nf.FetchName(ctx, symbol)
	if err != nil {
		return "", err
	}
	c.store(ctx, key, name)
	return name, nil
}

func (c *CachedFetcher) lookup(ctx context.Context, key string, out any) bool {
	b, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable")
		return false
	}
	return true
}

func (c *CachedFetcher) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Cache.Set(ctx, key, b, c.TTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
