package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"tickerdash/internal/market/candle"
	"tickerdash/internal/market/orderbook"
	"tickerdash/internal/market/ticker"
	"tickerdash/internal/metrics"
	"tickerdash/pkg/binance"

	"go.uber.org/zap"
)

// Stream kinds, used as log and metric labels.
const (
	KindKline  = "kline"
	KindTicker = "ticker"
	KindTrade  = "trade"
	KindDepth  = "depth"
)

var errWrongEvent = errors.New("unexpected event type")

// MakeKlineHandler returns a function that decodes kline messages and hands
// the resulting updates to sink. Malformed messages are logged and dropped.
func MakeKlineHandler(logger *zap.Logger, sink func(candle.Update)) func(msg []byte) {
	return func(msg []byte) {
		var ev binance.KlineEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			reject(logger, KindKline, fmt.Errorf("%w: %v", candle.ErrMalformedUpdate, err))
			return
		}
		if ev.EventType != "kline" || ev.Kline == nil {
			reject(logger, KindKline, fmt.Errorf("%w: %w %q", candle.ErrMalformedUpdate, errWrongEvent, ev.EventType))
			return
		}

		u, err := ev.Kline.ToUpdate()
		if err != nil {
			reject(logger, KindKline, err)
			return
		}
		accept(KindKline)
		sink(u)
	}
}

// MakeTickerHandler decodes rolling 24h ticker messages.
func MakeTickerHandler(logger *zap.Logger, sink func(ticker.Stats)) func(msg []byte) {
	return func(msg []byte) {
		var ev binance.TickerEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			reject(logger, KindTicker, err)
			return
		}
		if ev.EventType != "24hrTicker" {
			reject(logger, KindTicker, fmt.Errorf("%w %q", errWrongEvent, ev.EventType))
			return
		}

		values, err := parseFloats(ev.LastPrice, ev.PriceChange, ev.PricePercent, ev.BaseVolume)
		if err != nil {
			reject(logger, KindTicker, err)
			return
		}
		if values[0] <= 0 || values[3] < 0 {
			reject(logger, KindTicker, fmt.Errorf("%w: price %v volume %v", candle.ErrMalformedUpdate, values[0], values[3]))
			return
		}
		accept(KindTicker)
		sink(ticker.Stats{
			Price:         values[0],
			Change:        values[1],
			ChangePercent: values[2],
			Volume:        values[3],
		})
	}
}

// MakeTradeHandler decodes individual trade messages.
func MakeTradeHandler(logger *zap.Logger, sink func(ticker.Trade)) func(msg []byte) {
	return func(msg []byte) {
		var ev binance.TradeEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			reject(logger, KindTrade, err)
			return
		}
		if ev.EventType != "trade" {
			reject(logger, KindTrade, fmt.Errorf("%w %q", errWrongEvent, ev.EventType))
			return
		}

		values, err := parseFloats(ev.Price, ev.Quantity)
		if err != nil {
			reject(logger, KindTrade, err)
			return
		}
		if values[0] <= 0 || values[1] < 0 {
			reject(logger, KindTrade, fmt.Errorf("%w: price %v quantity %v", candle.ErrMalformedUpdate, values[0], values[1]))
			return
		}

		ts := time.Now()
		if ev.TradeTime > 0 {
			ts = time.UnixMilli(ev.TradeTime)
		}
		accept(KindTrade)
		sink(ticker.Trade{
			Time:     ts,
			Price:    values[0],
			Quantity: values[1],
			Side:     ticker.SideFromMaker(ev.BuyerIsMaker),
		})
	}
}

// MakeDepthHandler decodes partial book snapshots. A snapshot with any bad
// level is dropped whole.
func MakeDepthHandler(logger *zap.Logger, sink func(bids, asks []orderbook.Level)) func(msg []byte) {
	return func(msg []byte) {
		var ev binance.DepthEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			reject(logger, KindDepth, err)
			return
		}
		if ev.Bids == nil && ev.Asks == nil {
			reject(logger, KindDepth, fmt.Errorf("%w: no bids or asks", orderbook.ErrMalformedDepth))
			return
		}

		bids, err := orderbook.ParseLevels(ev.Bids)
		if err != nil {
			reject(logger, KindDepth, err)
			return
		}
		asks, err := orderbook.ParseLevels(ev.Asks)
		if err != nil {
			reject(logger, KindDepth, err)
			return
		}
		accept(KindDepth)
		sink(bids, asks)
	}
}

// parseFloats parses exchange number strings. ParseFloat accepts "NaN" and
// "Inf", so finiteness is checked here.
func parseFloats(fields ...string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", candle.ErrMalformedUpdate, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q is not finite", candle.ErrMalformedUpdate, s)
		}
		out[i] = v
	}
	return out, nil
}

func accept(kind string) {
	metrics.StreamMessagesTotal.WithLabelValues(kind, "ok").Inc()
}

func reject(logger *zap.Logger, kind string, err error) {
	metrics.StreamMessagesTotal.WithLabelValues(kind, "malformed").Inc()
	logger.Warn("dropping malformed stream message", zap.String("stream", kind), zap.Error(err))
}
