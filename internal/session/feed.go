package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tickerdash/internal/binance/stream"
	"tickerdash/internal/market"
	"tickerdash/internal/market/candle"
	"tickerdash/internal/market/orderbook"
	"tickerdash/internal/market/ticker"
	"tickerdash/internal/metrics"
	"tickerdash/pkg/binance"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventBuffer    = 256
	archiveTimeout = 2 * time.Second
)

// feed is everything that lives for one activation of one pair. All state
// mutation happens on the run goroutine, in the order events were queued.
type feed struct {
	id       string
	pair     market.Pair
	interval binance.KlineInterval
	archiver Archiver
	logger   *zap.Logger

	window *candle.Window
	tape   *ticker.Tape
	book   *orderbook.Book

	events chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.RWMutex
	stats         ticker.Stats
	hasStats      bool
	startedAt     time.Time
	historyLoaded bool
	historyErr    bool
	lastErr       error
	lastErrAt     time.Time
}

func newFeed(pair market.Pair, opts Options) *feed {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &feed{
		id:       id,
		pair:     pair,
		interval: opts.Interval,
		archiver: opts.Archiver,
		logger: opts.Logger.With(
			zap.String("symbol", pair.Symbol()),
			zap.String("activation", id),
		),
		window:    candle.NewWindow(opts.Capacity, opts.Policy),
		tape:      ticker.NewTape(opts.TapeCapacity),
		book:      orderbook.NewBook(),
		events:    make(chan func(), eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		startedAt: time.Now(),
	}
}

// start launches the event loop, the history fetch and the four streams.
func (f *feed) start(history HistoryLoader, streamer Streamer) {
	f.logger.Info("activating pair",
		zap.String("pair", f.pair.String()),
		zap.Int("capacity", f.window.Capacity()),
		zap.String("policy", f.window.Policy().String()),
	)

	f.wg.Add(1)
	go f.run()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		bars, err := history.Load(f.ctx, f.pair)
		if err != nil {
			if f.ctx.Err() != nil {
				return
			}
			f.enqueue(func() { f.failHistory(err) })
			return
		}
		f.enqueue(func() { f.loadHistory(bars) })
	}()

	sym := f.pair.Stream()
	f.subscribe(streamer, binance.KlineStream(sym, f.interval),
		stream.MakeKlineHandler(f.logger, func(u candle.Update) {
			f.enqueue(func() { f.applyKline(u) })
		}))
	f.subscribe(streamer, binance.TickerStream(sym),
		stream.MakeTickerHandler(f.logger, func(s ticker.Stats) {
			f.enqueue(func() { f.setStats(s) })
		}))
	f.subscribe(streamer, binance.TradeStream(sym),
		stream.MakeTradeHandler(f.logger, func(tr ticker.Trade) {
			f.enqueue(func() { f.tape.Push(tr) })
		}))
	f.subscribe(streamer, binance.DepthStream(sym),
		stream.MakeDepthHandler(f.logger, func(bids, asks []orderbook.Level) {
			f.enqueue(func() { f.book.Replace(bids, asks) })
		}))
}

func (f *feed) subscribe(streamer Streamer, name string, handle func([]byte)) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		err := streamer.Stream(f.ctx, name, handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			f.logger.Warn("stream stopped", zap.String("stream", name), zap.Error(err))
		}
	}()
}

// stop cancels every unit of the feed and blocks until all of them have
// returned. After stop no event of this feed is applied.
func (f *feed) stop() {
	f.cancel()
	f.wg.Wait()
	f.logger.Info("deactivated pair", zap.String("pair", f.pair.String()))
}

func (f *feed) enqueue(apply func()) {
	select {
	case f.events <- apply:
	case <-f.ctx.Done():
	}
}

func (f *feed) run() {
	defer f.wg.Done()
	for {
		select {
		case <-f.ctx.Done():
			return
		case apply := <-f.events:
			// select picks randomly when both are ready
			if f.ctx.Err() != nil {
				return
			}
			apply()
		}
	}
}

func (f *feed) loadHistory(bars []candle.Candle) {
	if err := f.window.LoadHistory(bars); err != nil {
		metrics.HistoryLoadsTotal.WithLabelValues(f.pair.Symbol(), "rejected").Inc()
		f.logger.Warn("rejected kline history", zap.Error(err))
		f.failHistory(fmt.Errorf("%w: %w", candle.ErrHistoryLoadFailed, err))
		return
	}
	metrics.WindowCandles.Set(float64(f.window.Len()))

	f.mu.Lock()
	f.historyLoaded = true
	f.mu.Unlock()
}

func (f *feed) applyKline(u candle.Update) {
	res, err := f.window.Apply(u)
	if err != nil {
		metrics.WindowUpdatesTotal.WithLabelValues(f.pair.Symbol(), "error").Inc()
		f.logger.Warn("dropping kline update", zap.Error(err))
		f.setError(err)
		return
	}
	metrics.WindowUpdatesTotal.WithLabelValues(f.pair.Symbol(), res.String()).Inc()
	metrics.WindowCandles.Set(float64(f.window.Len()))

	if res == candle.Closed || (res == candle.Appended && u.Final) {
		if last, _, ok := f.window.Last(); ok {
			f.archive(last)
		}
	}
}

func (f *feed) archive(c candle.Candle) {
	if f.archiver == nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := f.archiver.ArchiveCandle(ctx, f.pair.Symbol(), string(f.interval), c); err != nil {
			f.logger.Warn("failed to archive candle", zap.Time("open_time", c.OpenTime), zap.Error(err))
		}
	}()
}

func (f *feed) setStats(s ticker.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = s
	f.hasStats = true
}

func (f *feed) failHistory(err error) {
	f.mu.Lock()
	f.historyErr = true
	f.mu.Unlock()
	f.setError(err)
}

// historyFailed reports whether the window can no longer be seeded.
func (f *feed) historyFailed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.historyErr && !f.historyLoaded
}

func (f *feed) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err
	f.lastErrAt = time.Now()
}

func (f *feed) tickerStats() (ticker.Stats, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stats, f.hasStats
}

func (f *feed) status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()

	st := Status{
		Pair:          f.pair,
		Active:        f.ctx.Err() == nil,
		ActivationID:  f.id,
		StartedAt:     f.startedAt,
		HistoryLoaded: f.historyLoaded,
		LastErrorAt:   f.lastErrAt,
	}
	if f.lastErr != nil {
		st.LastError = f.lastErr.Error()
	}
	return st
}
