package orderbook

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrMalformedDepth rejects a depth snapshot with an unparsable or negative level.
var ErrMalformedDepth = errors.New("malformed depth level")

var printer = message.NewPrinter(language.English)

// Level is one price level of the book.
type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ParseLevel parses a ["price", "qty"] pair as sent by the exchange.
func ParseLevel(raw [2]string) (Level, error) {
	price, err := decimal.NewFromString(raw[0])
	if err != nil {
		return Level{}, fmt.Errorf("%w: price %q: %v", ErrMalformedDepth, raw[0], err)
	}
	qty, err := decimal.NewFromString(raw[1])
	if err != nil {
		return Level{}, fmt.Errorf("%w: quantity %q: %v", ErrMalformedDepth, raw[1], err)
	}
	if !price.IsPositive() || qty.IsNegative() {
		return Level{}, fmt.Errorf("%w: %s @ %s", ErrMalformedDepth, raw[1], raw[0])
	}
	return Level{Price: price, Quantity: qty}, nil
}

// ParseLevels parses a full side of the book, failing on the first bad level.
func ParseLevels(raw [][2]string) ([]Level, error) {
	out := make([]Level, 0, len(raw))
	for _, r := range raw {
		lvl, err := ParseLevel(r)
		if err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, nil
}

// Row renders "price amount" with the price column padded to 11 characters.
func (l Level) Row() string {
	price, _ := l.Price.Round(2).Float64()
	qty, _ := l.Quantity.Round(4).Float64()
	return fmt.Sprintf(" %-11s %s", printer.Sprintf("%.2f", price), printer.Sprintf("%.4f", qty))
}

// Snapshot is a point-in-time copy of the book. Both sides are best first.
type Snapshot struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// AskRows lists asks highest first so the best ask sits next to the spread.
func (s Snapshot) AskRows() []string {
	rows := make([]string, 0, len(s.Asks))
	for i := len(s.Asks) - 1; i >= 0; i-- {
		rows = append(rows, s.Asks[i].Row())
	}
	return rows
}

// BidRows lists bids best first.
func (s Snapshot) BidRows() []string {
	rows := make([]string, 0, len(s.Bids))
	for _, b := range s.Bids {
		rows = append(rows, b.Row())
	}
	return rows
}

// Spread is best ask minus best bid, zero when either side is empty.
func (s Snapshot) Spread() decimal.Decimal {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return decimal.Zero
	}
	return s.Asks[0].Price.Sub(s.Bids[0].Price)
}

// Book holds the latest partial-depth snapshot of the active pair.
type Book struct {
	mu   sync.RWMutex
	bids []Level
	asks []Level
}

func NewBook() *Book {
	return &Book{}
}

// Replace swaps both sides of the book. Partial depth streams resend the
// whole top of book, so nothing is merged.
func (b *Book) Replace(bids, asks []Level) {
	nb := make([]Level, len(bids))
	copy(nb, bids)
	na := make([]Level, len(asks))
	copy(na, asks)

	b.mu.Lock()
	b.bids, b.asks = nb, na
	b.mu.Unlock()
}

// Snapshot returns a copy of the book.
func (b *Book) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{
		Bids: make([]Level, len(b.bids)),
		Asks: make([]Level, len(b.asks)),
	}
	copy(s.Bids, b.bids)
	copy(s.Asks, b.asks)
	return s
}
