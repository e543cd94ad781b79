package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tickerdash/internal/market"
	"tickerdash/internal/market/candle"
	"tickerdash/internal/market/orderbook"
	"tickerdash/internal/market/ticker"
	"tickerdash/internal/prefs"
	"tickerdash/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeFeed struct {
	mu      sync.Mutex
	pair    market.Pair
	active  bool
	candles []candle.Candle
	stats   *ticker.Stats
	trades  []ticker.Trade
	book    orderbook.Snapshot

	// runs after a frame is taken, standing in for a concurrent switch
	afterFrame func()
}

func (f *fakeFeed) Select(p market.Pair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pair, f.active = p, true
}

func (f *fakeFeed) Pair() (market.Pair, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pair, f.active
}

func (f *fakeFeed) Frame() session.Frame {
	f.mu.Lock()
	frame := session.Frame{
		Pair:      f.pair,
		HasPair:   f.active,
		Status:    session.Status{Pair: f.pair, Active: f.active},
		Candles:   f.candles,
		Trades:    f.trades,
		OrderBook: f.book,
	}
	if f.stats != nil {
		frame.Ticker, frame.HasTicker = *f.stats, true
	}
	hook := f.afterFrame
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return frame
}

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*gin.Engine, *fakeFeed, *prefs.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := market.NewCatalog([]string{"BTC/USDT", "ETH/USDT"})
	require.NoError(t, err)

	feed := &fakeFeed{
		pair:   market.Pair{Base: "BTC", Quote: "USDT"},
		active: true,
		candles: []candle.Candle{
			{OpenTime: t0, Open: 100, High: 103, Low: 99, Close: 101, Volume: 1_500_000},
			{OpenTime: t0.Add(time.Minute), Open: 101, High: 102, Low: 97, Close: 98, Volume: 2_400},
		},
		stats: &ticker.Stats{Price: 67123.456, Change: 1234.56, ChangePercent: 1.23, Volume: 9876.5},
		trades: []ticker.Trade{
			{Time: time.Date(2024, 5, 1, 9, 8, 7, 0, time.Local), Price: 65000.5, Quantity: 0.2, Side: ticker.SideAsk},
		},
		book: orderbook.Snapshot{
			Bids: []orderbook.Level{{Price: decimal.RequireFromString("100.5"), Quantity: decimal.RequireFromString("2")}},
			Asks: []orderbook.Level{{Price: decimal.RequireFromString("101.75"), Quantity: decimal.RequireFromString("1")}},
		},
	}
	store := prefs.Open(filepath.Join(t.TempDir(), "preferences.json"), zaptest.NewLogger(t))

	h := NewHandler(feed, catalog, store, 1, zaptest.NewLogger(t))
	return NewRouter(h, zaptest.NewLogger(t)), feed, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// go test -v --run TestHealthz
func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeArchive struct{ healthy bool }

func (f fakeArchive) IsHealthy(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok && f.healthy
}

// go test -v --run TestHealthzReportsArchive
func TestHealthzReportsArchive(t *testing.T) {
	for name, tc := range map[string]struct {
		healthy bool
		code    int
		archive string
	}{
		"up":   {healthy: true, code: http.StatusOK, archive: "up"},
		"down": {healthy: false, code: http.StatusServiceUnavailable, archive: "down"},
	} {
		t.Run(name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			catalog, err := market.NewCatalog([]string{"BTC/USDT"})
			require.NoError(t, err)
			store := prefs.Open(filepath.Join(t.TempDir(), "preferences.json"), zaptest.NewLogger(t))
			h := NewHandler(&fakeFeed{}, catalog, store, 1, zaptest.NewLogger(t)).WithArchive(fakeArchive{healthy: tc.healthy})
			r := NewRouter(h, zaptest.NewLogger(t))

			w := do(r, http.MethodGet, "/healthz", "")

			assert.Equal(t, tc.code, w.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tc.archive, got["archive"])
		})
	}
}

// go test -v --run TestSymbols
func TestSymbols(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/symbols", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got SymbolsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, got.Symbols)
	assert.Equal(t, "BTC/USDT", got.Selected)
}

// go test -v --run TestDashboard
func TestDashboard(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got DashboardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "BTC/USDT", got.Pair)
	assert.False(t, got.HideInfo)
	assert.True(t, got.Status.Active)

	require.Len(t, got.Chart.Candles, 2)
	up, down := got.Chart.Candles[0], got.Chart.Candles[1]
	assert.True(t, up.Bullish)
	assert.Equal(t, candle.ColorUp, up.Color)
	assert.Equal(t, [2]float64{100, 101}, up.Body)
	assert.Equal(t, [2]float64{99, 103}, up.Wick)
	assert.Equal(t, "1.5M", up.VolumeLabel)
	assert.False(t, down.Bullish)
	assert.Equal(t, candle.ColorDown, down.Color)
	assert.Equal(t, "2K", down.VolumeLabel)
	assert.Equal(t, map[int]string{0: "09:30", 1: "09:31"}, got.Chart.TimeLabels)

	require.NotNil(t, got.Ticker)
	assert.Equal(t, "67,123.46", got.Ticker.Price)
	assert.Equal(t, "+1,234.56 (+1.23%)", got.Ticker.Change)
	require.Len(t, got.Trades, 1)
	assert.Contains(t, got.Trades[0], "ASK")

	require.NotNil(t, got.OrderBook)
	require.Len(t, got.OrderBook.Asks, 1)
	require.Len(t, got.OrderBook.Bids, 1)
	assert.Equal(t, "1.25", got.OrderBook.Spread)
}

// go test -v --run TestDashboardSingleFrame
func TestDashboardSingleFrame(t *testing.T) {
	r, feed, _ := newTestRouter(t)
	eth := market.Pair{Base: "ETH", Quote: "USDT"}
	feed.afterFrame = func() {
		feed.Select(eth)
		feed.mu.Lock()
		feed.candles = nil
		feed.mu.Unlock()
	}

	w := do(r, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got DashboardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "BTC/USDT", got.Pair)
	assert.Equal(t, "BTC/USDT", got.Status.Pair.String())
	assert.Len(t, got.Chart.Candles, 2)

	p, _ := feed.Pair()
	assert.Equal(t, eth, p)
}

// go test -v --run TestDashboardHideInfo
func TestDashboardHideInfo(t *testing.T) {
	r, _, store := newTestRouter(t)
	require.NoError(t, store.SetHideInfo(true))

	w := do(r, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, true, got["hide_info"])
	assert.NotContains(t, got, "ticker")
	assert.NotContains(t, got, "trades")
	assert.NotContains(t, got, "order_book")
	assert.Contains(t, got, "chart")
}

// go test -v --run TestSelectSymbol
func TestSelectSymbol(t *testing.T) {
	r, feed, store := newTestRouter(t)

	w := do(r, http.MethodPut, "/api/symbol", `{"symbol":"eth/usdt"}`)
	require.Equal(t, http.StatusOK, w.Code)

	p, _ := feed.Pair()
	assert.Equal(t, market.Pair{Base: "ETH", Quote: "USDT"}, p)
	assert.Equal(t, "ETH/USDT", store.Get().Symbol)
}

// go test -v --run TestSelectSymbolRejectsBadInput
func TestSelectSymbolRejectsBadInput(t *testing.T) {
	r, feed, store := newTestRouter(t)

	for name, body := range map[string]string{
		"unlisted":   `{"symbol":"DOGE/USDT"}`,
		"not a pair": `{"symbol":"BTCUSDT"}`,
		"missing":    `{}`,
		"bad json":   `{"symbol":`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodPut, "/api/symbol", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	p, _ := feed.Pair()
	assert.Equal(t, "BTC/USDT", p.String())
	assert.Empty(t, store.Get().Symbol)
}

// go test -v --run TestSetHideInfo
func TestSetHideInfo(t *testing.T) {
	r, _, store := newTestRouter(t)

	w := do(r, http.MethodPut, "/api/prefs/hide-info", `{"hide_info":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Get().HideInfo)

	// false is a valid value, absence is not
	w = do(r, http.MethodPut, "/api/prefs/hide-info", `{"hide_info":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.Get().HideInfo)

	w = do(r, http.MethodPut, "/api/prefs/hide-info", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// go test -v --run TestMetricsEndpoint
func TestMetricsEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
