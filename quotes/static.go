package quotes

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/soliplex/flasharb/types"
)

// ErrUnavailable is returned when a source has no quote for a (venue, pair).
var ErrUnavailable = fmt.Errorf("quote unavailable")

// StaticSource serves quotes from an in-memory table. It backs paper runs and
// tests, where prices must be deterministic.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]map[string]float64 // venue -> pair -> price
}

// NewStatic creates an empty static source.
func NewStatic() *StaticSource {
	return &StaticSource{prices: make(map[string]map[string]float64)}
}

// SetPrice sets the price for a (venue, pair).
func (s *StaticSource) SetPrice(venue string, pair types.Pair, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	venuePrices, ok := s.prices[venue]
	if !ok {
		venuePrices = make(map[string]float64)
		s.prices[venue] = venuePrices
	}
	venuePrices[pair.String()] = price
}

// Quote implements pricecache.Source.
func (s *StaticSource) Quote(_ context.Context, venue string, pair types.Pair) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[venue][pair.String()]
	if !ok {
		return 0, fmt.Errorf("%w: %s %s", ErrUnavailable, venue, pair)
	}
	return price, nil
}

// priceFile is the yaml shape: venue -> "BASE/QUOTE" -> price.
type priceFile map[string]map[string]float64

// LoadFile reads a static price table from a yaml file. Pair keys are
// normalized to canonical order.
func LoadFile(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prices file: %w", err)
	}
	var pf priceFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse prices file %s: %w", path, err)
	}
	src := NewStatic()
	for venue, pairs := range pf {
		for pairStr, price := range pairs {
			pair, flipped, err := ParsePair(pairStr)
			if err != nil {
				return nil, fmt.Errorf("prices file %s: %w", path, err)
			}
			// A price written against the reversed order is inverted so the
			// stored value is always quote-per-base of the canonical pair.
			if flipped && price > 0 {
				price = 1 / price
			}
			src.SetPrice(venue, pair, price)
		}
	}
	return src, nil
}

// ParsePair parses "BASE/QUOTE" into a canonical pair. flipped reports that
// the written order was reversed relative to canonical order.
func ParsePair(s string) (types.Pair, bool, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			if i == 0 || i == len(s)-1 {
				break
			}
			base, quote := s[:i], s[i+1:]
			return types.NewPair(base, quote), base > quote, nil
		}
	}
	return types.Pair{}, false, fmt.Errorf("malformed pair %q", s)
}
