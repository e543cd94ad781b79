package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickerdash/internal/market"
	"tickerdash/internal/market/candle"
	"tickerdash/internal/metrics"
	"tickerdash/pkg/binance"

	"go.uber.org/zap"
)

// KlineFetcher is the REST side of the exchange client.
type KlineFetcher interface {
	GetKlines(ctx context.Context, symbol string, interval binance.KlineInterval, limit int) ([]candle.Candle, error)
}

// CandleArchive serves previously archived candles, oldest first.
type CandleArchive interface {
	RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error)
}

// Loader fetches the bulk candle history a window is seeded with.
type Loader struct {
	Fetcher  KlineFetcher
	Interval binance.KlineInterval
	Limit    int
	Timeout  time.Duration
	Logger   *zap.Logger

	// Fallback is consulted when the exchange fetch fails. Optional.
	Fallback CandleArchive
}

// Load fetches the most recent Limit candles for pair. Every failure is
// wrapped in candle.ErrHistoryLoadFailed and logged here, so callers only
// need to decide what to keep.
func (l *Loader) Load(ctx context.Context, pair market.Pair) ([]candle.Candle, error) {
	symbol := pair.Symbol()
	start := time.Now()
	bars, err := l.fetch(ctx, symbol)
	metrics.HistoryLoadDuration.WithLabelValues(symbol).Observe(time.Since(start).Seconds())

	if errors.Is(err, context.Canceled) {
		metrics.HistoryLoadsTotal.WithLabelValues(symbol, "cancelled").Inc()
		l.Logger.Debug("kline history fetch cancelled", zap.String("symbol", symbol))
		return nil, fmt.Errorf("%w: %s: %w", candle.ErrHistoryLoadFailed, symbol, err)
	}
	if err != nil {
		l.Logger.Warn("failed to fetch kline history",
			zap.String("symbol", symbol), zap.String("interval", string(l.Interval)), zap.Error(err))
		if archived, ok := l.fromArchive(ctx, symbol); ok {
			metrics.HistoryLoadsTotal.WithLabelValues(symbol, "archive").Inc()
			l.Logger.Info("loaded kline history from archive", zap.String("symbol", symbol), zap.Int("count", len(archived)))
			return archived, nil
		}
		metrics.HistoryLoadsTotal.WithLabelValues(symbol, "failed").Inc()
		return nil, fmt.Errorf("%w: %s: %w", candle.ErrHistoryLoadFailed, symbol, err)
	}

	metrics.HistoryLoadsTotal.WithLabelValues(symbol, "ok").Inc()
	l.Logger.Info("loaded kline history", zap.String("symbol", symbol), zap.Int("count", len(bars)))
	return bars, nil
}

func (l *Loader) fetch(ctx context.Context, symbol string) ([]candle.Candle, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	return l.Fetcher.GetKlines(ctx, symbol, l.Interval, l.Limit)
}

// fromArchive reads the newest archived candles. An empty archive counts as
// a miss.
func (l *Loader) fromArchive(ctx context.Context, symbol string) ([]candle.Candle, bool) {
	if l.Fallback == nil || ctx.Err() != nil {
		return nil, false
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	bars, err := l.Fallback.RecentCandles(ctx, symbol, string(l.Interval), l.Limit)
	if err != nil {
		l.Logger.Warn("failed to read archived klines", zap.String("symbol", symbol), zap.Error(err))
		return nil, false
	}
	return bars, len(bars) > 0
}
