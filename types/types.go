package types

import (
	"fmt"
	"time"
)

// Complexity classifies a route by the number of distinct trades required.
type Complexity string

const (
	ComplexityDirect     Complexity = "direct"
	ComplexityTriangular Complexity = "triangular"
)

// PriorityLevel controls how aggressively network fees are bid.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// RouteStatus tracks a route through the execution pipeline.
type RouteStatus string

const (
	RouteDiscovered RouteStatus = "discovered"
	RouteSimulated  RouteStatus = "simulated"
	RouteExecuted   RouteStatus = "executed"
	RouteRejected   RouteStatus = "rejected"
	RouteFailed     RouteStatus = "failed"
)

// Pair is an asset pair in canonical order (Base < Quote lexicographically).
// The cached price for a pair is expressed as units of Quote per unit of Base.
type Pair struct {
	Base  string
	Quote string
}

// NewPair returns the canonical pair for two assets regardless of argument order.
func NewPair(a, b string) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Base: a, Quote: b}
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Hop is a single trade within a route. Notional is the value routed through
// the hop in loan-asset terms; it compounds across hops for triangular routes.
type Hop struct {
	Venue     string
	FromAsset string
	ToAsset   string
	Rate      float64
	Notional  float64
}

// Route is a candidate flash-loan arbitrage opportunity. Routes are created
// fresh each scan cycle, consumed immediately, and never reused.
type Route struct {
	ID         string
	Complexity Complexity
	Status     RouteStatus

	// Closed loop of asset identifiers, starting and ending on LoanAsset.
	Assets []string
	Hops   []Hop

	LoanAsset    string
	LoanProvider string
	LoanAmount   float64

	GrossProfit  float64
	LoanFee      float64
	TradingFees  float64
	Slippage     float64
	NetworkCost  float64
	NetProfit    float64
	NetProfitPct float64

	// SpreadRatio is the raw price edge before costs (direct: relative price
	// difference, triangular: combined rate minus one).
	SpreadRatio float64
	Confidence  float64

	// ExecutionPath is the human-readable step list for logs and dashboards.
	ExecutionPath []string

	DiscoveredAt time.Time
}

// IsClosedLoop reports whether the asset sequence starts and ends on the
// borrowed asset. Every route handed to execution must satisfy this.
func (r *Route) IsClosedLoop() bool {
	if len(r.Assets) < 3 {
		return false
	}
	return r.Assets[0] == r.LoanAsset && r.Assets[len(r.Assets)-1] == r.LoanAsset
}

// Venues returns the distinct venue names involved, in hop order.
func (r *Route) Venues() []string {
	var out []string
	seen := make(map[string]bool, len(r.Hops))
	for _, h := range r.Hops {
		if !seen[h.Venue] {
			seen[h.Venue] = true
			out = append(out, h.Venue)
		}
	}
	return out
}

func (r *Route) String() string {
	return fmt.Sprintf("%s %s loan %.4f %s net %.6f conf %.2f",
		r.Complexity, r.ID, r.LoanAmount, r.LoanAsset, r.NetProfit, r.Confidence)
}
