package binance

import "fmt"

// APIError is the error envelope returned by the REST API.
type APIError struct {
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance error: status=%d code=%d msg=%s", e.StatusCode, e.Code, e.Msg)
}

// KlineEvent is a <symbol>@kline_<interval> stream message.
type KlineEvent struct {
	EventType string        `json:"e"` // "kline"
	EventTime int64         `json:"E"` // ms since epoch
	Symbol    string        `json:"s"` // e.g. "BTCUSDT"
	Kline     *KlinePayload `json:"k"`
}

// KlinePayload carries the running aggregate of one bucket.
type KlinePayload struct {
	StartTime int64  `json:"t"` // bucket open time, ms
	CloseTime int64  `json:"T"` // bucket close time, ms
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"` // base asset volume
	Trades    int64  `json:"n"`
	Final     bool   `json:"x"` // true on the last message of the bucket
}

// TickerEvent is a <symbol>@ticker (rolling 24h) stream message.
type TickerEvent struct {
	EventType    string `json:"e"` // "24hrTicker"
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	PriceChange  string `json:"p"`
	PricePercent string `json:"P"`
	LastPrice    string `json:"c"`
	BaseVolume   string `json:"v"`
	QuoteVolume  string `json:"q"`
	OpenPrice    string `json:"o"`
	HighPrice    string `json:"h"`
	LowPrice     string `json:"l"`
}

// TradeEvent is a <symbol>@trade stream message.
type TradeEvent struct {
	EventType    string `json:"e"` // "trade"
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	TradeID      int64  `json:"t"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTime    int64  `json:"T"`
	BuyerIsMaker bool   `json:"m"`
}

// DepthEvent is a <symbol>@depth<levels> partial book message.
type DepthEvent struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}
