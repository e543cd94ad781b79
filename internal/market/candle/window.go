package candle

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the number of candles kept for the chart.
const DefaultCapacity = 60

// Window is a bounded, time-ordered series of candles for one symbol.
// Callers must feed it from a single goroutine to keep arrival order; the
// mutex only protects readers taking snapshots.
type Window struct {
	mu         sync.RWMutex
	capacity   int
	policy     NewBucketPolicy
	candles    []Candle
	lastClosed bool
}

// NewWindow returns an empty window. A non-positive capacity selects
// DefaultCapacity.
func NewWindow(capacity int, policy NewBucketPolicy) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{
		capacity: capacity,
		policy:   policy,
		candles:  make([]Candle, 0, capacity),
	}
}

// LoadHistory replaces the window with the most recent bars. The whole batch
// is validated first; on error the window is left as it was.
func (w *Window) LoadHistory(bars []Candle) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: bar %d: %v", ErrMalformedBar, i, err)
		}
		if i > 0 && !b.OpenTime.After(bars[i-1].OpenTime) {
			return fmt.Errorf("%w: bar %d: open time %s not after previous",
				ErrMalformedBar, i, b.OpenTime.Format("15:04:05"))
		}
	}

	if len(bars) > w.capacity {
		bars = bars[len(bars)-w.capacity:]
	}

	next := make([]Candle, len(bars), w.capacity)
	copy(next, bars)

	w.mu.Lock()
	w.candles = next
	w.lastClosed = false // the newest bar may still be forming
	w.mu.Unlock()
	return nil
}

// Apply merges a streamed update into the window.
func (w *Window) Apply(u Update) (Result, error) {
	c := u.Candle()
	if err := c.Validate(); err != nil {
		return Ignored, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.candles) == 0 {
		return Ignored, nil
	}

	last := &w.candles[len(w.candles)-1]
	switch {
	case c.OpenTime.Before(last.OpenTime):
		return Stale, nil

	case c.OpenTime.Equal(last.OpenTime):
		if w.lastClosed {
			return Stale, nil
		}
		// Exchange aggregates are authoritative: replace, don't merge.
		last.High = c.High
		last.Low = c.Low
		last.Close = c.Close
		last.Volume = c.Volume
		last.OpenTime = c.OpenTime
		if u.Final {
			w.lastClosed = true
			return Closed, nil
		}
		return Replaced, nil
	}

	if !u.Final {
		switch w.policy {
		case DropNewBucket:
			return Dropped, nil
		case RejectNewBucket:
			return Ignored, fmt.Errorf("%w: %s", ErrUnexpectedBucket, c.OpenTime.Format("15:04:05"))
		}
	}

	w.candles = append(w.candles, c)
	w.lastClosed = u.Final
	w.trim()
	return Appended, nil
}

// trim drops the oldest candles beyond capacity. Caller holds mu.
func (w *Window) trim() {
	if over := len(w.candles) - w.capacity; over > 0 {
		w.candles = append(w.candles[:0], w.candles[over:]...)
	}
}

// Snapshot returns a copy of the candles, oldest first.
func (w *Window) Snapshot() []Candle {
	w.mu.RLock()
	defer w.mu.RUnlock()

	cp := make([]Candle, len(w.candles))
	copy(cp, w.candles)
	return cp
}

// Last returns the newest candle and whether it is closed.
func (w *Window) Last() (c Candle, closed bool, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.candles) == 0 {
		return Candle{}, false, false
	}
	return w.candles[len(w.candles)-1], w.lastClosed, true
}

func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.candles)
}

func (w *Window) Capacity() int { return w.capacity }

func (w *Window) Policy() NewBucketPolicy { return w.policy }
