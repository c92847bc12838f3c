package pricecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/soliplex/flasharb/types"
)

// scriptedSource returns the configured price, or an error when price <= 0.
type scriptedSource struct {
	price float64
	err   error
	calls int
}

func (s *scriptedSource) Quote(_ context.Context, venue string, pair types.Pair) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

func TestCacheGetSet(t *testing.T) {
	c := New(&scriptedSource{}, nil, zaptest.NewLogger(t))
	pair := types.NewPair("SOL", "USDC")

	_, ok := c.Get("Orca", pair)
	assert.False(t, ok, "missing entry is unsupported")

	c.Set("Orca", pair, 100)
	price, ok := c.Get("Orca", pair)
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
	assert.Equal(t, 1, c.Len())

	// a zero price marks the pair unsupported on the venue
	c.Set("Orca", pair, 0)
	_, ok = c.Get("Orca", pair)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheRefresh(t *testing.T) {
	pair := types.NewPair("SOL", "USDC")

	t.Run("stores fresh quote", func(t *testing.T) {
		src := &scriptedSource{price: 101.5}
		c := New(src, nil, zaptest.NewLogger(t))

		price, err := c.Refresh(context.Background(), "Orca", pair)
		require.NoError(t, err)
		assert.Equal(t, 101.5, price)

		cached, ok := c.Get("Orca", pair)
		require.True(t, ok)
		assert.Equal(t, 101.5, cached)
	})

	t.Run("failure keeps previous value", func(t *testing.T) {
		src := &scriptedSource{err: errors.New("venue down")}
		c := New(src, nil, zaptest.NewLogger(t))
		c.Set("Orca", pair, 99)

		_, err := c.Refresh(context.Background(), "Orca", pair)
		require.Error(t, err)

		cached, ok := c.Get("Orca", pair)
		require.True(t, ok)
		assert.Equal(t, 99.0, cached)
	})

	t.Run("non-positive quote is an error", func(t *testing.T) {
		src := &scriptedSource{price: -1}
		c := New(src, nil, zaptest.NewLogger(t))

		_, err := c.Refresh(context.Background(), "Orca", pair)
		assert.Error(t, err)
	})

	t.Run("cancelled context stops the limiter wait", func(t *testing.T) {
		src := &scriptedSource{price: 100}
		c := New(src, nil, zaptest.NewLogger(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Refresh(ctx, "Orca", pair)
		assert.Error(t, err)
		assert.Zero(t, src.calls)
	})
}

func TestCacheRefreshAll(t *testing.T) {
	pairA := types.NewPair("SOL", "USDC")
	pairB := types.NewPair("JUP", "USDC")

	src := &scriptedSource{price: 50}
	c := New(src, nil, zaptest.NewLogger(t))

	n := c.RefreshAll(context.Background(), []Target{
		{Venue: "Orca", Pair: pairA},
		{Venue: "Orca", Pair: pairB},
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())

	src.err = errors.New("venue down")
	n = c.RefreshAll(context.Background(), []Target{
		{Venue: "Orca", Pair: pairA},
	})
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, c.Len(), "stale entries survive a failed refresh")
}

func TestCacheStale(t *testing.T) {
	pair := types.NewPair("SOL", "USDC")
	c := New(&scriptedSource{}, nil, zaptest.NewLogger(t))

	assert.True(t, c.Stale(time.Minute), "empty cache is stale")

	c.Set("Orca", pair, 100)
	assert.False(t, c.Stale(time.Minute))

	// advance the clock past the max age
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.True(t, c.Stale(time.Minute))
}
