package api

import (
	"time"

	"tickerdash/internal/market/candle"
	"tickerdash/internal/market/orderbook"
	"tickerdash/internal/market/ticker"
	"tickerdash/internal/session"
)

// CandleView is one candle plus everything a client needs to draw it.
type CandleView struct {
	OpenTime    time.Time  `json:"open_time"`
	Open        float64    `json:"open"`
	High        float64    `json:"high"`
	Low         float64    `json:"low"`
	Close       float64    `json:"close"`
	Volume      float64    `json:"volume"`
	Bullish     bool       `json:"bullish"`
	Color       string     `json:"color"`
	Body        [2]float64 `json:"body"`
	Wick        [2]float64 `json:"wick"`
	VolumeLabel string     `json:"volume_label"`
}

type ChartView struct {
	Candles    []CandleView   `json:"candles"`
	TimeLabels map[int]string `json:"time_labels"`
}

type TickerView struct {
	Price  string `json:"price"`
	Change string `json:"change"`
	Volume string `json:"volume"`
	Color  string `json:"color"`
}

type OrderBookView struct {
	Asks   []string `json:"asks"`
	Bids   []string `json:"bids"`
	Spread string   `json:"spread"`
}

type DashboardView struct {
	Pair      string         `json:"pair"`
	HideInfo  bool           `json:"hide_info"`
	Status    session.Status `json:"status"`
	Chart     ChartView      `json:"chart"`
	Ticker    *TickerView    `json:"ticker,omitempty"`
	Trades    []string       `json:"trades,omitempty"`
	OrderBook *OrderBookView `json:"order_book,omitempty"`
}

type SymbolsView struct {
	Symbols  []string `json:"symbols"`
	Selected string   `json:"selected"`
}

func newChartView(candles []candle.Candle, labelStep int) ChartView {
	views := make([]CandleView, len(candles))
	for i, c := range candles {
		bottom, top := candle.BodyRange(c)
		low, high := candle.WickRange(c)
		views[i] = CandleView{
			OpenTime:    c.OpenTime,
			Open:        c.Open,
			High:        c.High,
			Low:         c.Low,
			Close:       c.Close,
			Volume:      c.Volume,
			Bullish:     candle.IsBullish(c),
			Color:       candle.Color(c),
			Body:        [2]float64{bottom, top},
			Wick:        [2]float64{low, high},
			VolumeLabel: candle.FormatVolume(c.Volume),
		}
	}
	return ChartView{Candles: views, TimeLabels: candle.TimeLabels(candles, labelStep)}
}

func newTickerView(s ticker.Stats) *TickerView {
	return &TickerView{
		Price:  s.FormatPrice(),
		Change: s.FormatChange(),
		Volume: s.FormatVolume(),
		Color:  s.Color(),
	}
}

func tradeRows(trades []ticker.Trade) []string {
	rows := make([]string, len(trades))
	for i, tr := range trades {
		rows[i] = tr.Row()
	}
	return rows
}

func newOrderBookView(s orderbook.Snapshot) *OrderBookView {
	return &OrderBookView{
		Asks:   s.AskRows(),
		Bids:   s.BidRows(),
		Spread: s.Spread().StringFixed(2),
	}
}
