package ticker

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTapeCapacity is the number of trades kept on the tape.
const DefaultTapeCapacity = 8

// Side is the aggressor side of a trade as shown on the tape.
type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// SideFromMaker maps the exchange's buyer-is-maker flag to a tape side: a
// maker buyer means the seller crossed the spread.
func SideFromMaker(buyerIsMaker bool) Side {
	if buyerIsMaker {
		return SideAsk
	}
	return SideBid
}

// Trade is one executed trade.
type Trade struct {
	Time     time.Time `json:"time"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Side     Side      `json:"side"`
}

// Total is the quote value of the trade.
func (t Trade) Total() float64 {
	return t.Price * t.Quantity
}

// Row renders the fixed-width tape line.
func (t Trade) Row() string {
	return fmt.Sprintf(" %-12s %-12s %-13s %-14s %s",
		t.Time.Format("15:04:05"), t.Side,
		printer.Sprintf("%.2f", t.Price),
		printer.Sprintf("%.4f", t.Quantity),
		printer.Sprintf("%.2f", t.Total()))
}

// Tape keeps the most recent trades, newest first.
type Tape struct {
	mu       sync.RWMutex
	capacity int
	trades   []Trade
}

// NewTape returns an empty tape. A non-positive capacity selects
// DefaultTapeCapacity.
func NewTape(capacity int) *Tape {
	if capacity <= 0 {
		capacity = DefaultTapeCapacity
	}
	return &Tape{
		capacity: capacity,
		trades:   make([]Trade, 0, capacity),
	}
}

// Push puts a trade at the top of the tape, dropping the oldest past capacity.
func (t *Tape) Push(tr Trade) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.trades) < t.capacity {
		t.trades = append(t.trades, Trade{})
	}
	copy(t.trades[1:], t.trades[:len(t.trades)-1])
	t.trades[0] = tr
}

// Snapshot returns the trades, newest first.
func (t *Tape) Snapshot() []Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cp := make([]Trade, len(t.trades))
	copy(cp, t.trades)
	return cp
}

func (t *Tape) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.trades)
}
