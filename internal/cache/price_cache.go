// internal/cache/price_cache.go
package cache

import (
	"context"
	"fmt"
	"time"

	"dairy-subscription-service/internal/domain/pricing"

	jsoniter "github.com/json-iterator/go"
	goCache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultCleanupInterval is how often expired local entries are dropped.
	DefaultCleanupInterval = 10 * time.Minute

	// In-process entries live for ttl/localTTLDivisor.
	localTTLDivisor = 5
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PriceTableSource is the system of record for price tables.
type PriceTableSource interface {
	FindPriceTables(ctx context.Context, variantIDs []int64) (map[int64]pricing.PriceTable, error)
}

// PriceTableCache reads through an in-process cache, then redis, then the
// source. Redis is optional; its failures degrade to the source.
type PriceTableCache struct {
	source PriceTableSource
	local  *goCache.Cache
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewPriceTableCache(source PriceTableSource, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *PriceTableCache {
	localTTL := ttl / localTTLDivisor
	if localTTL <= 0 {
		localTTL = time.Minute
	}
	return &PriceTableCache{
		source: source,
		local:  goCache.New(localTTL, DefaultCleanupInterval),
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// FindPriceTables satisfies PriceTableSource so callers can swap the cache in.
func (c *PriceTableCache) FindPriceTables(ctx context.Context, variantIDs []int64) (map[int64]pricing.PriceTable, error) {
	out := make(map[int64]pricing.PriceTable, len(variantIDs))
	var missing []int64

	for _, id := range variantIDs {
		if v, ok := c.local.Get(key(id)); ok {
			out[id] = v.(pricing.PriceTable)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	missing = c.fromRedis(ctx, missing, out)
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.source.FindPriceTables(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, pt := range loaded {
		out[id] = pt
		c.local.SetDefault(key(id), pt)
	}
	c.toRedis(ctx, loaded)

	return out, nil
}

// Invalidate drops the given variants from both tiers.
func (c *PriceTableCache) Invalidate(ctx context.Context, variantIDs ...int64) {
	keys := make([]string, len(variantIDs))
	for i, id := range variantIDs {
		keys[i] = key(id)
		c.local.Delete(keys[i])
	}
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to invalidate price tables in redis", zap.Error(err), zap.Int64s("variant_ids", variantIDs))
	}
}

func (c *PriceTableCache) fromRedis(ctx context.Context, ids []int64, out map[int64]pricing.PriceTable) []int64 {
	if c.redis == nil {
		return ids
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("price table cache read failed, using database", zap.Error(err))
		return ids
	}

	var missing []int64
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var pt pricing.PriceTable
		if err := json.UnmarshalFromString(raw, &pt); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		out[ids[i]] = pt
		c.local.SetDefault(keys[i], pt)
	}
	return missing
}

func (c *PriceTableCache) toRedis(ctx context.Context, tables map[int64]pricing.PriceTable) {
	if c.redis == nil || len(tables) == 0 {
		return
	}

	pipe := c.redis.Pipeline()
	for id, pt := range tables {
		raw, err := json.MarshalToString(pt)
		if err != nil {
			continue
		}
		pipe.Set(ctx, key(id), raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("price table cache write failed", zap.Error(err))
	}
}

func key(variantID int64) string {
	return fmt.Sprintf("pricing:variant:%d", variantID)
}
