package registry

import (
	"fmt"
	"sort"
)

// Venue is a trading venue's static capability table. Venues are immutable
// after startup.
type Venue struct {
	Name                  string
	Assets                map[string]bool
	FeeRate               float64
	SlippageRate          float64
	PriorityFeeMultiplier float64
	Major                 bool
}

// Supports reports whether the venue lists the asset.
func (v *Venue) Supports(asset string) bool {
	return v.Assets[asset]
}

// AssetList returns the venue's assets in deterministic order.
func (v *Venue) AssetList() []string {
	out := make([]string, 0, len(v.Assets))
	for a := range v.Assets {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// LoanProvider is a flash-loan provider's static capability table. Loans must
// be repaid within the same atomic transaction.
type LoanProvider struct {
	Name          string
	MaxLoanAmount float64
	Assets        map[string]bool
	FeeRate       float64
}

// Supports reports whether the provider lends the asset.
func (p *LoanProvider) Supports(asset string) bool {
	return p.Assets[asset]
}

// VenueRegistry holds the configured venues.
type VenueRegistry struct {
	venues []*Venue
	byName map[string]*Venue
}

// NewVenueRegistry builds a registry. Venue order is preserved so scans are
// reproducible for fixed inputs.
func NewVenueRegistry(venues ...*Venue) *VenueRegistry {
	r := &VenueRegistry{byName: make(map[string]*Venue, len(venues))}
	for _, v := range venues {
		r.venues = append(r.venues, v)
		r.byName[v.Name] = v
	}
	return r
}

// Venues returns all registered venues in registration order.
func (r *VenueRegistry) Venues() []*Venue {
	return r.venues
}

// Lookup returns the venue with the given name.
func (r *VenueRegistry) Lookup(name string) (*Venue, bool) {
	v, ok := r.byName[name]
	return v, ok
}

// MultiAsset returns venues supporting at least min assets. Triangular
// enumeration only makes sense on venues with three or more.
func (r *VenueRegistry) MultiAsset(min int) []*Venue {
	var out []*Venue
	for _, v := range r.venues {
		if len(v.Assets) >= min {
			out = append(out, v)
		}
	}
	return out
}

// LoanProviderRegistry holds the configured flash-loan providers.
type LoanProviderRegistry struct {
	providers []*LoanProvider
	byName    map[string]*LoanProvider
}

// NewLoanProviderRegistry builds a provider registry.
func NewLoanProviderRegistry(providers ...*LoanProvider) *LoanProviderRegistry {
	r := &LoanProviderRegistry{byName: make(map[string]*LoanProvider, len(providers))}
	for _, p := range providers {
		r.providers = append(r.providers, p)
		r.byName[p.Name] = p
	}
	return r
}

// Providers returns all registered providers in registration order.
func (r *LoanProviderRegistry) Providers() []*LoanProvider {
	return r.providers
}

// Lookup returns the provider with the given name.
func (r *LoanProviderRegistry) Lookup(name string) (*LoanProvider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// CheapestFor selects the lowest-fee provider that supports the asset.
func (r *LoanProviderRegistry) CheapestFor(asset string) (*LoanProvider, error) {
	var best *LoanProvider
	for _, p := range r.providers {
		if !p.Supports(asset) {
			continue
		}
		if best == nil || p.FeeRate < best.FeeRate {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no loan provider supports %s", asset)
	}
	return best, nil
}

func set(assets ...string) map[string]bool {
	m := make(map[string]bool, len(assets))
	for _, a := range assets {
		m[a] = true
	}
	return m
}

// DefaultVenues returns the built-in venue table. Fee and slippage rates are
// static estimates, overridable from config.
func DefaultVenues() []*Venue {
	return []*Venue{
		{Name: "Jupiter", Assets: set("SOL", "USDC", "USDT", "ETH", "BTC", "JUP", "BONK"), FeeRate: 0.0020, SlippageRate: 0.0008, PriorityFeeMultiplier: 1.0, Major: true},
		{Name: "Raydium", Assets: set("SOL", "USDC", "USDT", "JUP", "BONK"), FeeRate: 0.0025, SlippageRate: 0.0010, PriorityFeeMultiplier: 1.0, Major: true},
		{Name: "Orca", Assets: set("SOL", "USDC", "ETH", "JUP"), FeeRate: 0.0030, SlippageRate: 0.0012, PriorityFeeMultiplier: 1.0, Major: true},
		{Name: "Openbook", Assets: set("SOL", "USDC", "USDT"), FeeRate: 0.0022, SlippageRate: 0.0015, PriorityFeeMultiplier: 1.1, Major: false},
		{Name: "Meteora", Assets: set("SOL", "USDC", "JUP"), FeeRate: 0.0028, SlippageRate: 0.0014, PriorityFeeMultiplier: 1.0, Major: false},
		{Name: "Phoenix", Assets: set("SOL", "USDC"), FeeRate: 0.0018, SlippageRate: 0.0011, PriorityFeeMultiplier: 1.2, Major: false},
		{Name: "Lifinity", Assets: set("SOL", "USDC"), FeeRate: 0.0024, SlippageRate: 0.0009, PriorityFeeMultiplier: 1.0, Major: false},
	}
}

// DefaultLoanProviders returns the built-in flash-loan provider table.
func DefaultLoanProviders() []*LoanProvider {
	return []*LoanProvider{
		{Name: "Solend", MaxLoanAmount: 100000, Assets: set("SOL", "USDC", "USDT", "ETH"), FeeRate: 0.0003},
		{Name: "Marginfi", MaxLoanAmount: 50000, Assets: set("SOL", "USDC", "JUP"), FeeRate: 0.0005},
		{Name: "Kamino", MaxLoanAmount: 75000, Assets: set("SOL", "USDC", "USDT", "BTC"), FeeRate: 0.0004},
		{Name: "Mango", MaxLoanAmount: 25000, Assets: set("SOL", "USDC", "ETH", "BTC", "JUP", "BONK"), FeeRate: 0.0006},
	}
}
