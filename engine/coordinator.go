package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/soliplex/flasharb/config"
	"github.com/soliplex/flasharb/executor"
	"github.com/soliplex/flasharb/types"
	"github.com/soliplex/flasharb/utils/metrics"
)

var (
	// ErrSimulationFailed marks routes abandoned before any submission.
	ErrSimulationFailed = errors.New("simulation failed")
	// ErrExecutionFailed marks routes submitted but not settled.
	ErrExecutionFailed = errors.New("execution failed")
)

// Stats are the coordinator's running totals.
type Stats struct {
	Executed         int
	Failed           int
	Rejected         int
	CumulativeProfit float64
}

// Coordinator filters scored routes by threshold and serializes their
// execution. At most one route is mid-execution at any instant, process-wide,
// so borrowed loan capacity is never double-committed.
type Coordinator struct {
	minProfit     float64
	minConfidence float64
	maxPerCycle   int

	exec    executor.Executor
	logger  *zap.Logger
	metrics *metrics.EngineMetrics

	// execMu is the process-wide execution lock. Held across the whole
	// simulate-then-execute sequence and released on every exit path.
	execMu sync.Mutex

	mu      sync.Mutex
	stats   Stats
	history *lru.Cache
}

// NewCoordinator creates an execution coordinator.
func NewCoordinator(cfg *config.Config, exec executor.Executor, m *metrics.EngineMetrics, logger *zap.Logger) (*Coordinator, error) {
	history, err := lru.New(cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to create history cache: %w", err)
	}
	return &Coordinator{
		minProfit:     cfg.MinProfitThreshold,
		minConfidence: cfg.MinConfidence,
		maxPerCycle:   cfg.MaxExecutionsPerCycle,
		exec:          exec,
		logger:        logger,
		metrics:       m,
		history:       history,
	}, nil
}

// ExecuteBest sorts candidates by net profit, filters by threshold and
// executes the best eligible ones serially. active is re-checked before each
// execution; unexecuted candidates are discarded, never queued, because their
// prices may already be stale by the next cycle. Returns the number executed.
func (c *Coordinator) ExecuteBest(ctx context.Context, routes []*types.Route, active func() bool) int {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].NetProfit > routes[j].NetProfit
	})

	executed := 0
	for _, route := range routes {
		if executed >= c.maxPerCycle {
			break
		}
		if active != nil && !active() {
			c.logger.Info("deactivated, discarding remaining candidates",
				zap.Int("remaining", len(routes)-executed))
			break
		}
		if !c.accept(route) {
			continue
		}
		if err := c.Execute(ctx, route); err != nil {
			c.logger.Warn("route execution failed", zap.String("route", route.ID), zap.Error(err))
			continue
		}
		executed++
	}
	return executed
}

// accept applies the acceptance threshold. Rejections are logged and counted;
// a rejected route is dropped, never retried against stale data.
func (c *Coordinator) accept(route *types.Route) bool {
	if route.NetProfit >= c.minProfit && route.Confidence >= c.minConfidence {
		return true
	}
	route.Status = types.RouteRejected
	reason := "below_profit_threshold"
	if route.NetProfit >= c.minProfit {
		reason = "below_confidence"
	}
	c.mu.Lock()
	c.stats.Rejected++
	c.mu.Unlock()
	c.metrics.RoutesRejected.WithLabelValues(reason).Inc()
	c.logger.Info("route rejected",
		zap.String("route", route.ID),
		zap.String("reason", reason),
		zap.Float64("net_profit", route.NetProfit),
		zap.Float64("confidence", route.Confidence),
		zap.Float64("threshold", c.minProfit),
	)
	return false
}

// Execute runs one route through simulate-then-execute under the exclusive
// execution lock. Simulation failure aborts with no submission.
func (c *Coordinator) Execute(ctx context.Context, route *types.Route) error {
	c.execMu.Lock()
	defer c.execMu.Unlock()

	start := time.Now()
	c.metrics.RecordAttempt()
	c.metrics.ActiveExecutions.Inc()
	defer func() {
		c.metrics.ActiveExecutions.Dec()
		c.metrics.ExecutionLatency.Observe(time.Since(start).Seconds())
		c.metrics.UpdateSuccessRate()
	}()

	if err := c.exec.Simulate(ctx, route); err != nil {
		c.fail(route)
		c.logger.Warn("simulation failed, route abandoned",
			zap.String("route", route.ID),
			zap.Strings("path", route.ExecutionPath),
			zap.Error(err),
		)
		return fmt.Errorf("%w: route %s: %v", ErrSimulationFailed, route.ID, err)
	}
	route.Status = types.RouteSimulated

	receipt, err := c.exec.Execute(ctx, route)
	if err != nil {
		c.fail(route)
		c.logger.Error("execution failed",
			zap.String("route", route.ID),
			zap.Float64("loan_amount", route.LoanAmount),
			zap.Error(err),
		)
		return fmt.Errorf("%w: route %s: %v", ErrExecutionFailed, route.ID, err)
	}

	route.Status = types.RouteExecuted
	c.mu.Lock()
	c.stats.Executed++
	c.stats.CumulativeProfit += receipt.ActualProfit
	c.mu.Unlock()
	c.history.Add(route.ID, route)

	c.metrics.RoutesExecuted.Inc()
	if receipt.ActualProfit > 0 {
		c.metrics.ProfitTotal.Add(receipt.ActualProfit)
	}

	c.logger.Info("route executed",
		zap.String("route", route.ID),
		zap.String("settlement", receipt.SettlementID),
		zap.String("complexity", string(route.Complexity)),
		zap.Float64("loan_amount", route.LoanAmount),
		zap.Float64("expected_profit", route.NetProfit),
		zap.Float64("actual_profit", receipt.ActualProfit),
		zap.Strings("path", route.ExecutionPath),
	)
	return nil
}

func (c *Coordinator) fail(route *types.Route) {
	route.Status = types.RouteFailed
	c.mu.Lock()
	c.stats.Failed++
	c.mu.Unlock()
	c.metrics.RoutesFailed.Inc()
}

// Stats returns a copy of the running totals.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// RecentOpportunities returns the bounded history of executed routes, oldest
// first, for dashboards and monitoring.
func (c *Coordinator) RecentOpportunities() []*types.Route {
	keys := c.history.Keys()
	out := make([]*types.Route, 0, len(keys))
	for _, k := range keys {
		if v, ok := c.history.Get(k); ok {
			out = append(out, v.(*types.Route))
		}
	}
	return out
}
