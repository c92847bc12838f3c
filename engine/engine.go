package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/soliplex/flasharb/config"
	"github.com/soliplex/flasharb/pricecache"
	"github.com/soliplex/flasharb/scanner"
	"github.com/soliplex/flasharb/utils/metrics"
)

// backoffFactor stretches the wait after a cycle with no usable prices at
// all. Per-route problems never trigger it.
const backoffFactor = 4

// Engine drives the periodic scan -> score -> filter -> execute loop. Each
// cycle runs to completion before the next begins; only the price refresh
// runs concurrently with it.
type Engine struct {
	cfg         *config.Config
	scanner     *scanner.Scanner
	cache       *pricecache.Cache
	coordinator *Coordinator
	logger      *zap.Logger
	metrics     *metrics.EngineMetrics

	active atomic.Bool
}

// New assembles the engine from explicitly constructed parts.
func New(cfg *config.Config, sc *scanner.Scanner, cache *pricecache.Cache, coord *Coordinator, m *metrics.EngineMetrics, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		scanner:     sc,
		cache:       cache,
		coordinator: coord,
		logger:      logger,
		metrics:     m,
	}
}

// Activate enables scanning and execution.
func (e *Engine) Activate() {
	if e.active.CompareAndSwap(false, true) {
		e.logger.Info("engine activated")
	}
}

// Deactivate stops new executions. The signal is honored at the top of the
// next cycle and before each execution step; an in-flight execution runs to
// completion rather than being aborted.
func (e *Engine) Deactivate() {
	if e.active.CompareAndSwap(true, false) {
		e.logger.Info("engine deactivated")
	}
}

// Active reports the lifecycle state.
func (e *Engine) Active() bool {
	return e.active.Load()
}

// Coordinator exposes the execution coordinator for monitoring accessors.
func (e *Engine) Coordinator() *Coordinator {
	return e.coordinator
}

// Run executes the scan loop until the context is cancelled. The price cache
// refresh runs in its own goroutine at the same cadence.
func (e *Engine) Run(ctx context.Context) error {
	e.Activate()

	go e.refreshLoop(ctx)

	interval := e.cfg.ScanInterval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	e.logger.Info("scan loop starting",
		zap.Duration("interval", interval),
		zap.Float64("min_profit", e.cfg.MinProfitThreshold),
		zap.Float64("min_confidence", e.cfg.MinConfidence),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("scan loop stopped")
			return nil
		case <-timer.C:
		}

		wait := interval
		if e.active.Load() {
			wait = e.cycle(ctx)
		}
		timer.Reset(wait)
	}
}

// cycle performs one complete scan cycle and returns the wait before the
// next one.
func (e *Engine) cycle(ctx context.Context) time.Duration {
	e.metrics.ScanCycles.Inc()
	interval := e.cfg.ScanInterval()

	// A cache with no fresh prices anywhere is a systemic failure, not a
	// per-route one; back off instead of spinning on an empty book.
	if e.cache.Stale(e.cfg.PriceMaxAge()) {
		e.logger.Warn("no usable prices in cache, backing off",
			zap.Duration("wait", interval*backoffFactor))
		return interval * backoffFactor
	}

	routes := e.scanner.Scan(ctx)
	e.metrics.RoutesDiscovered.Add(float64(len(routes)))
	for _, route := range routes {
		e.logger.Debug("route discovered",
			zap.String("route", route.ID),
			zap.String("complexity", string(route.Complexity)),
			zap.Float64("net_profit", route.NetProfit),
			zap.Float64("confidence", route.Confidence),
		)
	}

	executed := e.coordinator.ExecuteBest(ctx, routes, e.active.Load)
	if executed > 0 {
		stats := e.coordinator.Stats()
		e.logger.Info("cycle complete",
			zap.Int("candidates", len(routes)),
			zap.Int("executed", executed),
			zap.Float64("cumulative_profit", stats.CumulativeProfit),
		)
	}
	return interval
}

// refreshLoop keeps the price cache current. It may run concurrently with
// scan bookkeeping; accepted routes are frozen snapshots and unaffected.
func (e *Engine) refreshLoop(ctx context.Context) {
	targets := e.scanner.RefreshTargets()
	e.cache.RefreshAll(ctx, targets)

	ticker := time.NewTicker(e.cfg.ScanInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshed := e.cache.RefreshAll(ctx, targets)
			e.logger.Debug("price refresh complete",
				zap.Int("refreshed", refreshed),
				zap.Int("targets", len(targets)),
			)
		}
	}
}
