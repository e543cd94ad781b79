package postgres

import (
	"testing"
	"time"

	"tickerdash/internal/market/candle"

	"github.com/stretchr/testify/assert"
)

// go test -v --run TestToCandleRecord
func TestToCandleRecord(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	c := candle.Candle{
		OpenTime: time.Date(2024, 5, 1, 21, 0, 0, 0, loc),
		Open:     1, High: 3, Low: 0.5, Close: 2, Volume: 42,
	}

	r := ToCandleRecord("BTCUSDT", "1m", c)

	assert.Equal(t, "BTCUSDT", r.Symbol)
	assert.Equal(t, "1m", r.Interval)
	assert.Equal(t, time.UTC, r.OpenTime.Location())
	assert.True(t, r.OpenTime.Equal(c.OpenTime))
	assert.Equal(t, 42.0, r.Volume)

	back := r.Candle()
	assert.True(t, back.OpenTime.Equal(c.OpenTime))
	assert.Equal(t, c.Close, back.Close)
	assert.Equal(t, "candle_record", CandleRecord{}.TableName())
}
