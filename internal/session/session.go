package session

import (
	"context"
	"sync"
	"time"

	"tickerdash/internal/market"
	"tickerdash/internal/market/candle"
	"tickerdash/internal/market/orderbook"
	"tickerdash/internal/market/ticker"
	"tickerdash/internal/metrics"
	"tickerdash/pkg/binance"

	"go.uber.org/zap"
)

// Streamer delivers every message of a named exchange stream to handle until
// ctx is cancelled.
type Streamer interface {
	Stream(ctx context.Context, stream string, handle func([]byte)) error
}

// HistoryLoader fetches the bulk history a window starts from.
type HistoryLoader interface {
	Load(ctx context.Context, pair market.Pair) ([]candle.Candle, error)
}

// Archiver persists closed candles. Optional.
type Archiver interface {
	ArchiveCandle(ctx context.Context, symbol, interval string, c candle.Candle) error
}

type Options struct {
	Interval     binance.KlineInterval
	Capacity     int
	Policy       candle.NewBucketPolicy
	TapeCapacity int
	Archiver     Archiver
	Logger       *zap.Logger
}

// Status describes the active feed.
type Status struct {
	Pair          market.Pair `json:"pair"`
	Active        bool        `json:"active"`
	ActivationID  string      `json:"activation_id,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	HistoryLoaded bool        `json:"history_loaded"`
	LastError     string      `json:"last_error,omitempty"`
	LastErrorAt   time.Time   `json:"last_error_at"`
}

// Session owns the single active pair. Selecting another pair tears the
// current feed down completely before the next one starts, so no update for
// the old pair can land after Select returns.
type Session struct {
	history  HistoryLoader
	streamer Streamer
	opts     Options

	switchMu sync.Mutex // serializes Select and Close
	mu       sync.RWMutex
	active   *feed
}

func New(history HistoryLoader, streamer Streamer, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Interval == "" {
		opts.Interval = binance.Interval1Min
	}
	return &Session{
		history:  history,
		streamer: streamer,
		opts:     opts,
	}
}

// Select makes pair the active pair. Selecting the already active pair is a
// no-op unless its history load failed, in which case the feed restarts.
func (s *Session) Select(pair market.Pair) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	old := s.active
	if old != nil && old.pair == pair && !old.historyFailed() {
		s.mu.Unlock()
		return
	}
	s.active = nil
	s.mu.Unlock()

	if old != nil {
		old.stop()
	}

	f := newFeed(pair, s.opts)
	f.start(s.history, s.streamer)
	metrics.ActivationsTotal.WithLabelValues(pair.Symbol()).Inc()

	s.mu.Lock()
	s.active = f
	s.mu.Unlock()
}

// Close deactivates the current pair and waits for its feed to stop.
func (s *Session) Close() {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	old := s.active
	s.active = nil
	s.mu.Unlock()

	if old != nil {
		old.stop()
	}
	metrics.WindowCandles.Set(0)
}

func (s *Session) current() *feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Pair returns the active pair, if any.
func (s *Session) Pair() (market.Pair, bool) {
	f := s.current()
	if f == nil {
		return market.Pair{}, false
	}
	return f.pair, true
}

// Candles returns a copy of the active window, oldest first.
func (s *Session) Candles() []candle.Candle {
	if f := s.current(); f != nil {
		return f.window.Snapshot()
	}
	return []candle.Candle{}
}

// Ticker returns the latest 24h stats and whether any have arrived yet.
func (s *Session) Ticker() (ticker.Stats, bool) {
	if f := s.current(); f != nil {
		return f.tickerStats()
	}
	return ticker.Stats{}, false
}

// Trades returns the tape, newest first.
func (s *Session) Trades() []ticker.Trade {
	if f := s.current(); f != nil {
		return f.tape.Snapshot()
	}
	return []ticker.Trade{}
}

// OrderBook returns the latest depth snapshot.
func (s *Session) OrderBook() orderbook.Snapshot {
	if f := s.current(); f != nil {
		return f.book.Snapshot()
	}
	return orderbook.Snapshot{Bids: []orderbook.Level{}, Asks: []orderbook.Level{}}
}

// Frame is everything on screen, read from a single feed.
type Frame struct {
	Pair      market.Pair
	HasPair   bool
	Status    Status
	Candles   []candle.Candle
	Ticker    ticker.Stats
	HasTicker bool
	Trades    []ticker.Trade
	OrderBook orderbook.Snapshot
}

// Frame reads every part of the active feed at once, so a concurrent Select
// can't mix two pairs in one result.
func (s *Session) Frame() Frame {
	f := s.current()
	if f == nil {
		return Frame{
			Candles:   []candle.Candle{},
			Trades:    []ticker.Trade{},
			OrderBook: orderbook.Snapshot{Bids: []orderbook.Level{}, Asks: []orderbook.Level{}},
		}
	}
	stats, ok := f.tickerStats()
	return Frame{
		Pair:      f.pair,
		HasPair:   true,
		Status:    f.status(),
		Candles:   f.window.Snapshot(),
		Ticker:    stats,
		HasTicker: ok,
		Trades:    f.tape.Snapshot(),
		OrderBook: f.book.Snapshot(),
	}
}

func (s *Session) Status() Status {
	if f := s.current(); f != nil {
		return f.status()
	}
	return Status{}
}
