package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFreshTTL = 300 * time.Second
	testStaleTTL = 3600 * time.Second
)

func newTestSWR(t *testing.T) (*SWR, *clock) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewSWR(rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c.SetClock(clk.now)
	return c, clk
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func counterCompute(n *atomic.Int32, value string) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) {
		n.Add(1)
		return []byte(value), nil
	}
}

func TestFreshHit(t *testing.T) {
	c, clk := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	res, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v1"`))
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(res.Value))
	assert.False(t, res.IsStale)
	assert.Equal(t, int32(1), computes.Load())

	// t=100: inside the fresh horizon, served without recompute
	clk.advance(100 * time.Second)
	res, err = c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v2"`))
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(res.Value))
	assert.False(t, res.IsStale)
	assert.Equal(t, int32(1), computes.Load())
}

func TestStaleServesAndRevalidatesOnce(t *testing.T) {
	c, clk := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	_, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v1"`))
	require.NoError(t, err)

	// t=400: past fresh, inside stale. The old value is served immediately
	// and one background recompute runs.
	clk.advance(400 * time.Second)
	res, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v2"`))
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(res.Value))
	assert.True(t, res.IsStale)
	assert.True(t, res.Revalidating)

	require.Eventually(t, func() bool { return computes.Load() == 2 },
		time.Second, 5*time.Millisecond)

	// the refreshed value is now fresh again
	res, err = c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v3"`))
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, string(res.Value))
	assert.False(t, res.IsStale)
	assert.Equal(t, int32(2), computes.Load())
}

func TestConcurrentStaleReadsSingleFlight(t *testing.T) {
	c, clk := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	_, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v1"`))
	require.NoError(t, err)
	clk.advance(400 * time.Second)

	slow := func(context.Context) ([]byte, error) {
		computes.Add(1)
		time.Sleep(50 * time.Millisecond)
		return []byte(`"v2"`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, slow)
			assert.NoError(t, err)
			assert.Equal(t, `"v1"`, string(res.Value))
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return computes.Load() >= 2 },
		time.Second, 5*time.Millisecond)
	// initial compute plus exactly one shared revalidation
	assert.Equal(t, int32(2), computes.Load())
}

func TestPastStaleBlocks(t *testing.T) {
	c, clk := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	_, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v1"`))
	require.NoError(t, err)

	// t=4000: past the stale horizon entirely, the caller blocks on the
	// recompute and gets the new value
	clk.advance(4000 * time.Second)
	res, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v2"`))
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, string(res.Value))
	assert.False(t, res.IsStale)
	assert.Equal(t, int32(2), computes.Load())
}

func TestBlockingComputeFailurePropagates(t *testing.T) {
	c, _ := newTestSWR(t)
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	_, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestBackgroundFailureKeepsStaleValue(t *testing.T) {
	c, clk := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	_, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v1"`))
	require.NoError(t, err)
	clk.advance(400 * time.Second)

	failing := func(context.Context) ([]byte, error) {
		computes.Add(1)
		return nil, errors.New("upstream down")
	}
	res, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, failing)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(res.Value))

	require.Eventually(t, func() bool { return computes.Load() == 2 },
		time.Second, 5*time.Millisecond)

	// the stale value survived the failed refresh
	res, err = c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, failing)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(res.Value))
	assert.True(t, res.IsStale)
}

func TestDeleteForcesRecompute(t *testing.T) {
	c, _ := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	_, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v1"`))
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "k"))

	res, err := c.GetOrCompute(ctx, "k", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v2"`))
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, string(res.Value))
	assert.Equal(t, int32(2), computes.Load())
}

func TestInvalidateNamespace(t *testing.T) {
	c, _ := newTestSWR(t)
	ctx := context.Background()
	var computes atomic.Int32

	for _, key := range []string{"user:1:campaigns", "user:1:ads", "user:2:campaigns"} {
		_, err := c.GetOrCompute(ctx, key, testFreshTTL, testStaleTTL, counterCompute(&computes, `"v"`))
		require.NoError(t, err)
	}

	require.NoError(t, c.InvalidateNamespace(ctx, "user:1:"))

	// user:1 keys recompute, user:2 is untouched
	_, err := c.GetOrCompute(ctx, "user:1:campaigns", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v"`))
	require.NoError(t, err)
	_, err = c.GetOrCompute(ctx, "user:2:campaigns", testFreshTTL, testStaleTTL, counterCompute(&computes, `"v"`))
	require.NoError(t, err)
	assert.Equal(t, int32(4), computes.Load())
}
