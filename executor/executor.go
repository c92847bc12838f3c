package executor

import (
	"context"
	"errors"

	"github.com/soliplex/flasharb/types"
)

// ErrOpenLoop is returned when a route's asset sequence does not return to
// the borrowed asset. Flash loans settle atomically; an open loop cannot repay.
var ErrOpenLoop = errors.New("route is not a closed loop")

// Receipt is the settlement outcome of an executed route.
type Receipt struct {
	SettlementID string
	ActualProfit float64
}

// Executor builds and submits the atomic multi-step transaction for a route.
// Implementations live outside the engine core; tests substitute their own.
type Executor interface {
	// Simulate dry-runs the route without submitting anything.
	Simulate(ctx context.Context, route *types.Route) error
	// Execute submits the route and waits for settlement.
	Execute(ctx context.Context, route *types.Route) (*Receipt, error)
}
