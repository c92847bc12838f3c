package profit

import (
	"fmt"

	"github.com/soliplex/flasharb/registry"
	"github.com/soliplex/flasharb/types"
)

// Cost model constants. The confidence adjustments preserve the shape of the
// original heuristic (base + bonuses/penalties, clamped band); the exact
// values are estimates, not calibrated probabilities.
const (
	// BaseExecutionCost is the network cost of a minimal arbitrage
	// transaction at medium priority, in loan-asset terms.
	BaseExecutionCost = 0.15

	// TriangularCostMultiplier covers the extra instructions a three-hop
	// atomic transaction needs.
	TriangularCostMultiplier = 1.8

	// AnomalousSpreadRatio is the raw edge above which a quote is more
	// likely stale than exploitable.
	AnomalousSpreadRatio = 0.05

	baseConfidenceDirect     = 0.72
	baseConfidenceTriangular = 0.65
	majorVenueBonus          = 0.08
	anomalousSpreadPenalty   = 0.15
	majorAssetsAdjustment    = 0.05

	// ConfidenceFloor and ConfidenceCeiling bound the confidence band.
	ConfidenceFloor   = 0.50
	ConfidenceCeiling = 0.98
)

var priorityMultipliers = map[types.PriorityLevel]float64{
	types.PriorityHigh:   1.5,
	types.PriorityMedium: 1.0,
	types.PriorityLow:    0.75,
}

// Model nets a candidate route's gross profit against fees, slippage and
// network cost, and scores confidence.
type Model struct {
	venues    *registry.VenueRegistry
	providers *registry.LoanProviderRegistry
	priority  types.PriorityLevel
}

// NewModel creates a profit model. priority selects the network-fee bid level
// used for every route the model prices.
func NewModel(venues *registry.VenueRegistry, providers *registry.LoanProviderRegistry, priority types.PriorityLevel) *Model {
	if _, ok := priorityMultipliers[priority]; !ok {
		priority = types.PriorityMedium
	}
	return &Model{venues: venues, providers: providers, priority: priority}
}

// Price fills in the route's fee breakdown, net profit and confidence score.
// The route arrives with hops, loan sizing and gross profit set by the
// scanner. Routes with net profit <= 0 are the caller's to discard; Price
// itself never surfaces them as accepted.
func (m *Model) Price(route *types.Route) error {
	provider, ok := m.providers.Lookup(route.LoanProvider)
	if !ok {
		return fmt.Errorf("unknown loan provider %s", route.LoanProvider)
	}

	route.LoanFee = route.LoanAmount * provider.FeeRate

	var tradingFees, slippage float64
	maxPriorityMult := 1.0
	for _, hop := range route.Hops {
		venue, ok := m.venues.Lookup(hop.Venue)
		if !ok {
			return fmt.Errorf("unknown venue %s", hop.Venue)
		}
		tradingFees += hop.Notional * venue.FeeRate
		slippage += hop.Notional * venue.SlippageRate
		if venue.PriorityFeeMultiplier > maxPriorityMult {
			maxPriorityMult = venue.PriorityFeeMultiplier
		}
	}
	route.TradingFees = tradingFees
	route.Slippage = slippage

	networkCost := BaseExecutionCost * priorityMultipliers[m.priority] * maxPriorityMult
	if route.Complexity == types.ComplexityTriangular {
		networkCost *= TriangularCostMultiplier
	}
	route.NetworkCost = networkCost

	route.NetProfit = route.GrossProfit - route.LoanFee - route.TradingFees - route.Slippage - route.NetworkCost
	if route.LoanAmount > 0 {
		route.NetProfitPct = route.NetProfit / route.LoanAmount
	}

	route.Confidence = m.confidence(route)
	return nil
}

// confidence starts from a per-complexity base and applies heuristic
// adjustments, clamped into [ConfidenceFloor, ConfidenceCeiling].
func (m *Model) confidence(route *types.Route) float64 {
	score := baseConfidenceDirect
	if route.Complexity == types.ComplexityTriangular {
		score = baseConfidenceTriangular
	}

	for _, name := range route.Venues() {
		if v, ok := m.venues.Lookup(name); ok && v.Major {
			score += majorVenueBonus
			break
		}
	}

	// An implausibly wide edge usually means one side of the quote is stale.
	if route.SpreadRatio > AnomalousSpreadRatio {
		score -= anomalousSpreadPenalty
	}

	allMajor := true
	for _, asset := range route.Assets {
		if !registry.IsMajorAsset(asset) {
			allMajor = false
			break
		}
	}
	if allMajor {
		score += majorAssetsAdjustment
	} else {
		score -= majorAssetsAdjustment
	}

	if score < ConfidenceFloor {
		return ConfidenceFloor
	}
	if score > ConfidenceCeiling {
		return ConfidenceCeiling
	}
	return score
}
