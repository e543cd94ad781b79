package market

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownPair is returned when a pair is not in the catalog.
var ErrUnknownPair = errors.New("unknown pair")

// Pair is a tradable pair as shown in the selector, e.g. "BTC/USDT".
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// ParsePair accepts "BTC/USDT" (any case, surrounding spaces ignored).
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), "/")
	if !ok || base == "" || quote == "" || strings.Contains(quote, "/") {
		return Pair{}, fmt.Errorf("invalid pair %q: want BASE/QUOTE", s)
	}
	return Pair{Base: base, Quote: quote}, nil
}

// String returns the display form "BTC/USDT".
func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Symbol returns the exchange symbol "BTCUSDT".
func (p Pair) Symbol() string {
	return p.Base + p.Quote
}

// Stream returns the lowercase stream prefix "btcusdt".
func (p Pair) Stream() string {
	return strings.ToLower(p.Symbol())
}

// Catalog is the ordered set of pairs offered in the selector.
type Catalog struct {
	mu    sync.RWMutex
	pairs []Pair
}

// NewCatalog parses the configured pairs, dropping duplicates. The first
// pair is the default selection.
func NewCatalog(names []string) (*Catalog, error) {
	c := &Catalog{pairs: make([]Pair, 0, len(names))}
	for _, name := range names {
		p, err := ParsePair(name)
		if err != nil {
			return nil, err
		}
		c.Add(p)
	}
	if len(c.pairs) == 0 {
		return nil, errors.New("catalog needs at least one pair")
	}
	return c, nil
}

// Add appends a pair unless it is already listed.
func (c *Catalog) Add(p Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.pairs {
		if existing == p {
			return
		}
	}
	c.pairs = append(c.pairs, p)
}

// Lookup resolves a display name to a listed pair.
func (c *Catalog) Lookup(name string) (Pair, error) {
	p, err := ParsePair(name)
	if err != nil {
		return Pair{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, existing := range c.pairs {
		if existing == p {
			return p, nil
		}
	}
	return Pair{}, fmt.Errorf("%w: %s", ErrUnknownPair, p)
}

// All returns the listed pairs in selector order.
func (c *Catalog) All() []Pair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Pair, len(c.pairs))
	copy(out, c.pairs)
	return out
}

// Default is the first listed pair.
func (c *Catalog) Default() Pair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pairs[0]
}
