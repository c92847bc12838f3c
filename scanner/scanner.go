package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soliplex/flasharb/pricecache"
	"github.com/soliplex/flasharb/profit"
	"github.com/soliplex/flasharb/registry"
	"github.com/soliplex/flasharb/types"
)

// Scanner enumerates candidate arbitrage routes from cached prices. Each call
// to Scan produces fresh routes; nothing is carried between cycles.
type Scanner struct {
	venues    *registry.VenueRegistry
	providers *registry.LoanProviderRegistry
	cache     *pricecache.Cache
	model     *profit.Model
	logger    *zap.Logger

	mu                 sync.Mutex
	scanCount          int
	opportunitiesFound int
}

// New creates a scanner over the given registries, price cache and profit model.
func New(venues *registry.VenueRegistry, providers *registry.LoanProviderRegistry, cache *pricecache.Cache, model *profit.Model, logger *zap.Logger) *Scanner {
	return &Scanner{
		venues:    venues,
		providers: providers,
		cache:     cache,
		model:     model,
		logger:    logger,
	}
}

// Stats returns the number of completed scans and opportunities found so far.
func (s *Scanner) Stats() (scans, found int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanCount, s.opportunitiesFound
}

// RefreshTargets returns every (venue, pair) slot the scanner can make use
// of, for the cache refresh loop.
func (s *Scanner) RefreshTargets() []pricecache.Target {
	var targets []pricecache.Target
	for _, v := range s.venues.Venues() {
		assets := v.AssetList()
		for i := 0; i < len(assets); i++ {
			for j := i + 1; j < len(assets); j++ {
				targets = append(targets, pricecache.Target{
					Venue: v.Name,
					Pair:  types.NewPair(assets[i], assets[j]),
				})
			}
		}
	}
	return targets
}

// Scan runs one enumeration cycle and returns priced candidates with positive
// net profit. Output is deterministic for fixed cache contents.
func (s *Scanner) Scan(ctx context.Context) []*types.Route {
	var routes []*types.Route
	routes = append(routes, s.directRoutes(ctx)...)
	routes = append(routes, s.triangularRoutes(ctx)...)

	s.mu.Lock()
	s.scanCount++
	s.opportunitiesFound += len(routes)
	s.mu.Unlock()

	return routes
}

// directRoutes enumerates two-venue routes over every ordered venue pair
// sharing an asset pair. The unordered (venueX, venueY, pair) triple is
// marked processed so the reverse direction is not double-counted.
func (s *Scanner) directRoutes(ctx context.Context) []*types.Route {
	var routes []*types.Route
	processed := make(map[uint64]struct{})

	venues := s.venues.Venues()
	for i, vx := range venues {
		for j, vy := range venues {
			if i == j || ctx.Err() != nil {
				continue
			}
			for _, pair := range commonPairs(vx, vy) {
				if _, done := processed[tripleKey(vx.Name, vy.Name, pair)]; done {
					continue
				}
				processed[tripleKey(vx.Name, vy.Name, pair)] = struct{}{}

				route := s.buildDirect(vx, vy, pair)
				if route == nil {
					continue
				}
				if err := s.model.Price(route); err != nil {
					s.logger.Warn("pricing failed", zap.String("route", route.ID), zap.Error(err))
					continue
				}
				if route.NetProfit <= 0 {
					continue
				}
				routes = append(routes, route)
			}
		}
	}
	return routes
}

// buildDirect constructs a buy-low/sell-high candidate for one pair across
// two venues. Returns nil when a price is unsupported or no edge exists.
func (s *Scanner) buildDirect(vx, vy *registry.Venue, pair types.Pair) *types.Route {
	px, okx := s.cache.Get(vx.Name, pair)
	py, oky := s.cache.Get(vy.Name, pair)
	if !okx || !oky || px == py {
		return nil
	}

	buyVenue, sellVenue := vx, vy
	low, high := px, py
	if py < px {
		buyVenue, sellVenue = vy, vx
		low, high = py, px
	}
	spread := (high - low) / low

	// The borrowed asset funds the first trade: quote currency is borrowed,
	// spent buying the base on the cheap venue, and recovered on the sale.
	loanAsset := pair.Quote
	provider, err := s.providers.CheapestFor(loanAsset)
	if err != nil {
		s.logger.Debug("no provider for loan asset",
			zap.String("asset", loanAsset), zap.Error(err))
		return nil
	}
	loanAmount := cappedLoan(loanAsset, provider)

	ratio := high / low
	route := &types.Route{
		ID:           uuid.NewString(),
		Complexity:   types.ComplexityDirect,
		Status:       types.RouteDiscovered,
		Assets:       []string{loanAsset, pair.Base, loanAsset},
		LoanAsset:    loanAsset,
		LoanProvider: provider.Name,
		LoanAmount:   loanAmount,
		GrossProfit:  loanAmount * spread,
		SpreadRatio:  spread,
		DiscoveredAt: time.Now(),
		Hops: []types.Hop{
			{Venue: buyVenue.Name, FromAsset: loanAsset, ToAsset: pair.Base, Rate: 1 / low, Notional: loanAmount},
			{Venue: sellVenue.Name, FromAsset: pair.Base, ToAsset: loanAsset, Rate: high, Notional: loanAmount * ratio},
		},
	}
	route.ExecutionPath = []string{
		fmt.Sprintf("borrow %.4f %s from %s", loanAmount, loanAsset, provider.Name),
		fmt.Sprintf("buy %s on %s at %.6f", pair.Base, buyVenue.Name, low),
		fmt.Sprintf("sell %s on %s at %.6f", pair.Base, sellVenue.Name, high),
		fmt.Sprintf("repay %s loan plus fee", provider.Name),
		fmt.Sprintf("keep profit in %s", loanAsset),
	}
	return route
}

// triangularRoutes enumerates three-hop closed loops on venues supporting at
// least three assets. A loop is a candidate only when the product of its
// three directional rates exceeds one.
func (s *Scanner) triangularRoutes(ctx context.Context) []*types.Route {
	var routes []*types.Route
	for _, v := range s.venues.MultiAsset(3) {
		if ctx.Err() != nil {
			break
		}
		assets := v.AssetList()
		for _, base := range assets {
			for _, middle := range assets {
				if middle == base {
					continue
				}
				for _, target := range assets {
					if target == base || target == middle {
						continue
					}
					route := s.buildTriangular(v, base, middle, target)
					if route == nil {
						continue
					}
					if err := s.model.Price(route); err != nil {
						s.logger.Warn("pricing failed", zap.String("route", route.ID), zap.Error(err))
						continue
					}
					if route.NetProfit <= 0 {
						continue
					}
					routes = append(routes, route)
				}
			}
		}
	}
	return routes
}

// buildTriangular constructs a base→middle→target→base candidate on a single
// venue. Returns nil when any leg lacks a price or the combined rate is not
// profitable before costs.
func (s *Scanner) buildTriangular(v *registry.Venue, base, middle, target string) *types.Route {
	r1, ok1 := s.rate(v.Name, base, middle)
	r2, ok2 := s.rate(v.Name, middle, target)
	r3, ok3 := s.rate(v.Name, target, base)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	combined := r1 * r2 * r3
	if combined <= 1 {
		return nil
	}

	provider, err := s.providers.CheapestFor(base)
	if err != nil {
		s.logger.Debug("no provider for loan asset",
			zap.String("asset", base), zap.Error(err))
		return nil
	}
	loanAmount := cappedLoan(base, provider)

	route := &types.Route{
		ID:           uuid.NewString(),
		Complexity:   types.ComplexityTriangular,
		Status:       types.RouteDiscovered,
		Assets:       []string{base, middle, target, base},
		LoanAsset:    base,
		LoanProvider: provider.Name,
		LoanAmount:   loanAmount,
		GrossProfit:  loanAmount * (combined - 1),
		SpreadRatio:  combined - 1,
		DiscoveredAt: time.Now(),
		Hops: []types.Hop{
			{Venue: v.Name, FromAsset: base, ToAsset: middle, Rate: r1, Notional: loanAmount},
			{Venue: v.Name, FromAsset: middle, ToAsset: target, Rate: r2, Notional: loanAmount * r1},
			{Venue: v.Name, FromAsset: target, ToAsset: base, Rate: r3, Notional: loanAmount * r1 * r2},
		},
	}
	route.ExecutionPath = []string{
		fmt.Sprintf("borrow %.4f %s from %s", loanAmount, base, provider.Name),
		fmt.Sprintf("swap %s -> %s on %s at %.6f", base, middle, v.Name, r1),
		fmt.Sprintf("swap %s -> %s on %s at %.6f", middle, target, v.Name, r2),
		fmt.Sprintf("swap %s -> %s on %s at %.6f", target, base, v.Name, r3),
		fmt.Sprintf("repay %s loan plus fee", provider.Name),
	}
	return route
}

// rate returns the directional exchange rate from -> to on a venue, derived
// from the canonical pair price or its inverse.
func (s *Scanner) rate(venue, from, to string) (float64, bool) {
	pair := types.NewPair(from, to)
	price, ok := s.cache.Get(venue, pair)
	if !ok {
		return 0, false
	}
	if from == pair.Base {
		return price, true
	}
	return 1 / price, true
}

// cappedLoan sizes the loan from the asset-class table, capped at the
// provider's maximum.
func cappedLoan(asset string, provider *registry.LoanProvider) float64 {
	amount := registry.DefaultLoanSize(asset)
	if amount > provider.MaxLoanAmount {
		amount = provider.MaxLoanAmount
	}
	return amount
}

// commonPairs returns the canonical pairs both venues list, in deterministic
// order.
func commonPairs(a, b *registry.Venue) []types.Pair {
	var pairs []types.Pair
	assets := a.AssetList()
	for i := 0; i < len(assets); i++ {
		if !b.Supports(assets[i]) {
			continue
		}
		for j := i + 1; j < len(assets); j++ {
			if b.Supports(assets[j]) {
				pairs = append(pairs, types.NewPair(assets[i], assets[j]))
			}
		}
	}
	return pairs
}

// tripleKey hashes the unordered venue pair plus pair name for de-duplication.
func tripleKey(venueA, venueB string, pair types.Pair) uint64 {
	if venueA > venueB {
		venueA, venueB = venueB, venueA
	}
	return xxhash.Sum64String(venueA + "|" + venueB + "|" + pair.String())
}
