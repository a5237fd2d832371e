package port

import (
	"context"
	"time"
)

// CacheResult is the outcome of a cache read. IsStale marks a value served
// past its fresh horizon; Revalidating reports that this read scheduled the
// background recompute.
type CacheResult struct {
	Value        []byte
	IsStale      bool
	Revalidating bool
}

// Cache is a stale-while-revalidate get-or-compute cache with two time
// horizons. Within freshTTL the cached value is returned untouched; between
// freshTTL and staleTTL the cached value is returned immediately and exactly
// one background recompute is scheduled; past staleTTL the caller blocks on
// compute. A background recompute failure keeps the stale value; a blocking
// compute failure propagates.
type Cache interface {
	GetOrCompute(ctx context.Context, key string, freshTTL, staleTTL time.Duration, compute func(context.Context) ([]byte, error)) (CacheResult, error)

	// Delete forces the next access to treat the key as absent.
	Delete(ctx context.Context, key string) error

	// InvalidateNamespace removes every key under the prefix. Used after a
	// mutation so the next read is never served pre-mutation data.
	InvalidateNamespace(ctx context.Context, prefix string) error
}
