package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/soliplex/flasharb/config"
	"github.com/soliplex/flasharb/executor"
	"github.com/soliplex/flasharb/pricecache"
	"github.com/soliplex/flasharb/profit"
	"github.com/soliplex/flasharb/quotes"
	"github.com/soliplex/flasharb/scanner"
	"github.com/soliplex/flasharb/types"
	"github.com/soliplex/flasharb/utils/metrics"
)

func testEngine(t *testing.T, cfg *config.Config, source *quotes.StaticSource) (*Engine, *pricecache.Cache) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	venues := cfg.BuildVenueRegistry()
	providers := cfg.BuildProviderRegistry()
	cache := pricecache.New(source, nil, logger)
	model := profit.NewModel(venues, providers, cfg.Priority())
	sc := scanner.New(venues, providers, cache, model, logger)

	m := metrics.NewEngineMetrics("test", prometheus.NewRegistry())
	coord, err := NewCoordinator(cfg, executor.NewPaper(logger), m, logger)
	require.NoError(t, err)

	return New(cfg, sc, cache, coord, m, logger), cache
}

func TestEngineLifecycle(t *testing.T) {
	eng, _ := testEngine(t, config.DefaultConfig(), quotes.NewStatic())

	assert.False(t, eng.Active())
	eng.Activate()
	assert.True(t, eng.Active())
	eng.Activate() // idempotent
	assert.True(t, eng.Active())
	eng.Deactivate()
	assert.False(t, eng.Active())
}

func TestCycleBacksOffOnStaleCache(t *testing.T) {
	cfg := config.DefaultConfig()
	eng, _ := testEngine(t, cfg, quotes.NewStatic())

	// empty cache counts as systemic staleness
	wait := eng.cycle(context.Background())
	assert.Equal(t, cfg.ScanInterval()*backoffFactor, wait)
}

func TestCycleExecutesProfitableRoute(t *testing.T) {
	cfg := config.DefaultConfig()
	eng, cache := testEngine(t, cfg, quotes.NewStatic())
	eng.Activate()

	pair := types.NewPair("SOL", "USDC")
	cache.Set("Jupiter", pair, 100)
	cache.Set("Raydium", pair, 103)

	wait := eng.cycle(context.Background())
	assert.Equal(t, cfg.ScanInterval(), wait)

	stats := eng.Coordinator().Stats()
	assert.GreaterOrEqual(t, stats.Executed, 1)
	assert.Positive(t, stats.CumulativeProfit)
	assert.NotEmpty(t, eng.Coordinator().RecentOpportunities())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	eng, _ := testEngine(t, config.DefaultConfig(), quotes.NewStatic())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
