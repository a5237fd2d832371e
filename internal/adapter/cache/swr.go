package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"adforge/internal/core/port"
)

// entry is what lives under a cache key in Redis. Value is the caller's
// JSON as-is; ComputedAt anchors both horizons. Redis expiry is set to the
// stale horizon so entries self-delete once they can no longer be served.
type entry struct {
	Value      json.RawMessage `json:"value"`
	ComputedAt int64           `json:"computed_at"` // unix seconds
}

// SWR is a Redis-backed stale-while-revalidate cache implementing
// port.Cache. Concurrent stale reads on the same key schedule at most one
// background recompute; the singleflight group is the only coordination
// point between callers.
type SWR struct {
	rdb    *redis.Client
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewSWR returns a cache backed by the given Redis client.
func NewSWR(rdb *redis.Client, logger *slog.Logger) *SWR {
	return &SWR{rdb: rdb, logger: logger, now: time.Now}
}

// SetClock overrides the time source. Tests use it to move through the
// fresh and stale horizons without sleeping.
func (c *SWR) SetClock(now func() time.Time) { c.now = now }

var _ port.Cache = (*SWR)(nil)

// GetOrCompute implements the two-horizon contract. age <= freshTTL serves
// the value untouched; freshTTL < age <= staleTTL serves it immediately and
// schedules one background recompute; anything else blocks on compute.
func (c *SWR) GetOrCompute(ctx context.Context, key string, freshTTL, staleTTL time.Duration, compute func(context.Context) ([]byte, error)) (port.CacheResult, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return port.CacheResult{}, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err == nil {
		var e entry
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
			age := c.now().Sub(time.Unix(e.ComputedAt, 0))
			switch {
			case age <= freshTTL:
				return port.CacheResult{Value: e.Value}, nil
			case age <= staleTTL:
				scheduled := c.revalidate(ctx, key, staleTTL, compute)
				return port.CacheResult{Value: e.Value, IsStale: true, Revalidating: scheduled}, nil
			}
			// past the stale horizon: fall through to a blocking compute
		} else {
			c.logger.Warn("dropping undecodable cache entry",
				slog.String("key", key), slog.Any("error", jsonErr))
		}
	}

	value, err := c.computeAndStore(ctx, key, staleTTL, compute)
	if err != nil {
		return port.CacheResult{}, err
	}
	return port.CacheResult{Value: value}, nil
}

// Delete forces the next access to treat the key as absent.
func (c *SWR) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// InvalidateNamespace removes every key under the prefix via SCAN so large
// namespaces do not block Redis.
func (c *SWR) InvalidateNamespace(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err = c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache invalidate %s: %w", prefix, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// revalidate schedules a single background recompute for the key. It
// reports whether this call was the one that scheduled it. Failures keep
// the stale value in place and only log.
func (c *SWR) revalidate(ctx context.Context, key string, staleTTL time.Duration, compute func(context.Context) ([]byte, error)) bool {
	ch := c.group.DoChan("revalidate:"+key, func() (any, error) {
		// detach from the request that happened to trigger the refresh
		bg := context.WithoutCancel(ctx)
		if _, err := c.computeAndStore(bg, key, staleTTL, compute); err != nil {
			c.logger.Error("background revalidation failed",
				slog.String("key", key), slog.Any("error", err))
			return nil, err
		}
		return nil, nil
	})

	select {
	case <-ch:
		// recompute finished before we returned; treat as scheduled
		return true
	default:
	}
	go func() { <-ch }()
	return true
}

func (c *SWR) computeAndStore(ctx context.Context, key string, staleTTL time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	e := entry{Value: value, ComputedAt: c.now().Unix()}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	if err = c.rdb.Set(ctx, key, raw, staleTTL).Err(); err != nil {
		return nil, fmt.Errorf("cache set %s: %w", key, err)
	}
	return value, nil
}
