package stream

import (
	"testing"
	"time"

	"tickerdash/internal/market/candle"
	"tickerdash/internal/market/orderbook"
	"tickerdash/internal/market/ticker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return zap.New(core), logs
}

// go test -v --run TestKlineHandler
func TestKlineHandler(t *testing.T) {
	logger, logs := observed()
	var got []candle.Update
	h := MakeKlineHandler(logger, func(u candle.Update) { got = append(got, u) })

	h([]byte(`{"e":"kline","E":1,"s":"BTCUSDT","k":{"t":1714564800000,"T":1714564859999,"s":"BTCUSDT","i":"1m",
		"o":"10","c":"12","h":"13","l":"8","v":"7","n":3,"x":false}}`))
	h([]byte(`not json`))
	h([]byte(`{"e":"trade","E":1}`))
	h([]byte(`{"e":"kline","k":{"t":1714564800000,"o":"x","c":"1","h":"1","l":"1","v":"1"}}`))

	require.Len(t, got, 1)
	assert.Equal(t, candle.Update{
		OpenTime: time.UnixMilli(1714564800000),
		Open:     10, High: 13, Low: 8, Close: 12, Volume: 7,
	}, got[0])
	assert.Equal(t, 3, logs.Len())
}

// go test -v --run TestTickerHandler
func TestTickerHandler(t *testing.T) {
	logger, logs := observed()
	var got []ticker.Stats
	h := MakeTickerHandler(logger, func(s ticker.Stats) { got = append(got, s) })

	h([]byte(`{"e":"24hrTicker","E":1,"s":"BTCUSDT","p":"-120.50","P":"-0.18","c":"67000.10","v":"1234.5"}`))
	h([]byte(`{"e":"24hrTicker","c":"abc","p":"1","P":"1","v":"1"}`))

	require.Len(t, got, 1)
	assert.Equal(t, ticker.Stats{Price: 67000.10, Change: -120.50, ChangePercent: -0.18, Volume: 1234.5}, got[0])
	assert.Equal(t, 1, logs.Len())
}

// go test -v --run TestTradeHandler
func TestTradeHandler(t *testing.T) {
	logger, _ := observed()
	var got []ticker.Trade
	h := MakeTradeHandler(logger, func(tr ticker.Trade) { got = append(got, tr) })

	h([]byte(`{"e":"trade","E":1,"s":"BTCUSDT","t":9,"p":"65000.5","q":"0.2","T":1714564800123,"m":true}`))
	h([]byte(`{"e":"trade","p":"65000.5","q":"0.1","m":false}`))

	require.Len(t, got, 2)
	assert.Equal(t, ticker.SideAsk, got[0].Side)
	assert.Equal(t, time.UnixMilli(1714564800123), got[0].Time)
	assert.Equal(t, 65000.5, got[0].Price)
	assert.Equal(t, ticker.SideBid, got[1].Side)
	assert.False(t, got[1].Time.IsZero())
}

// go test -v --run TestTickerHandlerRejectsNonFinite
func TestTickerHandlerRejectsNonFinite(t *testing.T) {
	logger, logs := observed()
	var got []ticker.Stats
	h := MakeTickerHandler(logger, func(s ticker.Stats) { got = append(got, s) })

	for _, msg := range []string{
		`{"e":"24hrTicker","c":"NaN","p":"1","P":"1","v":"1"}`,
		`{"e":"24hrTicker","c":"100","p":"Inf","P":"1","v":"1"}`,
		`{"e":"24hrTicker","c":"100","p":"1","P":"-Inf","v":"1"}`,
		`{"e":"24hrTicker","c":"100","p":"1","P":"1","v":"-5"}`,
		`{"e":"24hrTicker","c":"-3","p":"1","P":"1","v":"5"}`,
	} {
		h([]byte(msg))
	}

	assert.Empty(t, got)
	require.Equal(t, 5, logs.Len())
	for _, entry := range logs.All() {
		err, ok := entry.ContextMap()["error"].(string)
		require.True(t, ok)
		assert.Contains(t, err, candle.ErrMalformedUpdate.Error())
	}
}

// go test -v --run TestTradeHandlerRejectsBadValues
func TestTradeHandlerRejectsBadValues(t *testing.T) {
	logger, logs := observed()
	var got []ticker.Trade
	h := MakeTradeHandler(logger, func(tr ticker.Trade) { got = append(got, tr) })

	h([]byte(`{"e":"trade","p":"-1","q":"0.5","m":true}`))
	h([]byte(`{"e":"trade","p":"100","q":"NaN","m":true}`))
	h([]byte(`{"e":"trade","p":"0","q":"1","m":false}`))
	h([]byte(`{"e":"trade","p":"100","q":"-0.1","m":false}`))
	h([]byte(`{"e":"trade","p":"+Inf","q":"1","m":false}`))

	assert.Empty(t, got)
	assert.Equal(t, 5, logs.Len())

	// zero quantity is a valid print
	h([]byte(`{"e":"trade","p":"100","q":"0","m":false}`))
	assert.Len(t, got, 1)
}

// go test -v --run TestDepthHandler
func TestDepthHandler(t *testing.T) {
	logger, logs := observed()
	var bids, asks []orderbook.Level
	calls := 0
	h := MakeDepthHandler(logger, func(b, a []orderbook.Level) {
		calls++
		bids, asks = b, a
	})

	h([]byte(`{"lastUpdateId":1,"bids":[["100.1","1"],["100.0","2"]],"asks":[["100.2","3"]]}`))
	h([]byte(`{"lastUpdateId":2,"bids":[["bad","1"]],"asks":[]}`))
	h([]byte(`{"result":null,"id":1}`))

	assert.Equal(t, 1, calls)
	assert.Len(t, bids, 2)
	assert.Len(t, asks, 1)
	assert.Equal(t, 2, logs.Len())
}
