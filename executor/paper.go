package executor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soliplex/flasharb/types"
)

// Paper is a deterministic in-process executor for dry runs. It settles each
// route at exactly its modeled net profit; no randomness, no network.
type Paper struct {
	logger *zap.Logger
}

// NewPaper creates a paper executor.
func NewPaper(logger *zap.Logger) *Paper {
	return &Paper{logger: logger}
}

// Simulate validates the route the way a real pre-flight would: the loop must
// close on the borrowed asset and every hop must be funded.
func (p *Paper) Simulate(_ context.Context, route *types.Route) error {
	if !route.IsClosedLoop() {
		return fmt.Errorf("simulate %s: %w", route.ID, ErrOpenLoop)
	}
	if route.LoanAmount <= 0 {
		return fmt.Errorf("simulate %s: non-positive loan amount", route.ID)
	}
	for i, hop := range route.Hops {
		if hop.Rate <= 0 || hop.Notional <= 0 {
			return fmt.Errorf("simulate %s: hop %d has invalid rate or notional", route.ID, i)
		}
	}
	return nil
}

// Execute settles the route on paper.
func (p *Paper) Execute(_ context.Context, route *types.Route) (*Receipt, error) {
	receipt := &Receipt{
		SettlementID: uuid.NewString(),
		ActualProfit: route.NetProfit,
	}
	p.logger.Info("paper settlement",
		zap.String("route", route.ID),
		zap.String("settlement", receipt.SettlementID),
		zap.Float64("profit", receipt.ActualProfit),
	)
	return receipt, nil
}
