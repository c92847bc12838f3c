package pricecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soliplex/flasharb/types"
)

// Source supplies last-trade prices for a (venue, pair). Implemented by the
// external quote collaborator; a returned error or non-positive price means
// the pair is currently unavailable there.
type Source interface {
	Quote(ctx context.Context, venue string, pair types.Pair) (float64, error)
}

// Entry is a cached price with its refresh time.
type Entry struct {
	Price     float64
	UpdatedAt time.Time
}

type key struct {
	venue string
	pair  string
}

// Target identifies one (venue, pair) slot to keep refreshed.
type Target struct {
	Venue string
	Pair  types.Pair
}

// Cache maps (venue, pair) to the last-known price. It is constructed
// explicitly and injected into the engine; there is no package-level state.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]Entry
	source  Source
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a price cache backed by the given quote source. The limiter
// bounds the refresh rate against the source; pass nil to refresh unthrottled.
func New(source Source, limiter *rate.Limiter, logger *zap.Logger) *Cache {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Cache{
		entries: make(map[key]Entry),
		source:  source,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the cached price. ok is false when the pair is unsupported on
// the venue (no entry, or a zero/sentinel price); callers must skip the pair.
func (c *Cache) Get(venue string, pair types.Pair) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key{venue, pair.String()}]
	if !ok || e.Price <= 0 {
		return 0, false
	}
	return e.Price, true
}

// Set stores a price directly, bypassing the quote source. Non-positive
// prices mark the pair unsupported.
func (c *Cache) Set(venue string, pair types.Pair, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{venue, pair.String()}] = Entry{Price: price, UpdatedAt: c.now()}
}

// Refresh pulls a fresh price from the quote source. On failure the previous
// value is kept and the error returned; scan cycles treat the slot as
// unsupported only if no prior value exists.
func (c *Cache) Refresh(ctx context.Context, venue string, pair types.Pair) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	price, err := c.source.Quote(ctx, venue, pair)
	if err != nil {
		return 0, fmt.Errorf("quote %s %s: %w", venue, pair, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("quote %s %s: non-positive price %f", venue, pair, price)
	}
	c.mu.Lock()
	c.entries[key{venue, pair.String()}] = Entry{Price: price, UpdatedAt: c.now()}
	c.mu.Unlock()
	return price, nil
}

// RefreshAll refreshes every target, skipping per-slot failures. It returns
// the number of slots successfully refreshed.
func (c *Cache) RefreshAll(ctx context.Context, targets []Target) int {
	refreshed := 0
	for _, t := range targets {
		if ctx.Err() != nil {
			return refreshed
		}
		if _, err := c.Refresh(ctx, t.Venue, t.Pair); err != nil {
			c.logger.Debug("price refresh failed",
				zap.String("venue", t.Venue),
				zap.String("pair", t.Pair.String()),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}
	return refreshed
}

// Len returns the number of usable (positive-price) entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if e.Price > 0 {
			n++
		}
	}
	return n
}

// Stale returns true when every entry is older than maxAge, or the cache is
// empty. The engine uses this as its systemic-failure backoff signal.
func (c *Cache) Stale(maxAge time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cutoff := c.now().Add(-maxAge)
	for _, e := range c.entries {
		if e.Price > 0 && e.UpdatedAt.After(cutoff) {
			return false
		}
	}
	return true
}
