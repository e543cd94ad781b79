package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestStatsFormatting
func TestStatsFormatting(t *testing.T) {
	up := Stats{Price: 67123.456, Change: 1234.561, ChangePercent: 1.234, Volume: 12345.678}
	assert.True(t, up.Up())
	assert.Equal(t, "#0ECB81", up.Color())
	assert.Equal(t, "67,123.46", up.FormatPrice())
	assert.Equal(t, "+1,234.56 (+1.23%)", up.FormatChange())
	assert.Equal(t, "12,345.68", up.FormatVolume())

	down := Stats{Price: 0.1234, Change: -12.5, ChangePercent: -0.75}
	assert.False(t, down.Up())
	assert.Equal(t, "#F6465D", down.Color())
	assert.Equal(t, "-12.50 (-0.75%)", down.FormatChange())

	flat := Stats{}
	assert.Equal(t, "+0.00 (+0.00%)", flat.FormatChange())
}

// go test -v --run TestSideFromMaker
func TestSideFromMaker(t *testing.T) {
	assert.Equal(t, SideAsk, SideFromMaker(true))
	assert.Equal(t, SideBid, SideFromMaker(false))
}

// go test -v --run TestTapeNewestFirstAndBounded
func TestTapeNewestFirstAndBounded(t *testing.T) {
	tape := NewTape(3)
	now := time.Now()

	for i := 1; i <= 5; i++ {
		tape.Push(Trade{Time: now, Price: float64(i), Quantity: 1, Side: SideBid})
	}

	got := tape.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, 5.0, got[0].Price)
	assert.Equal(t, 4.0, got[1].Price)
	assert.Equal(t, 3.0, got[2].Price)
}

// go test -v --run TestTapeDefaultCapacity
func TestTapeDefaultCapacity(t *testing.T) {
	tape := NewTape(0)
	for i := 0; i < 20; i++ {
		tape.Push(Trade{Price: float64(i)})
	}
	assert.Equal(t, DefaultTapeCapacity, tape.Len())
}

// go test -v --run TestTradeRow
func TestTradeRow(t *testing.T) {
	tr := Trade{
		Time:     time.Date(2024, 5, 1, 9, 8, 7, 0, time.Local),
		Price:    65000.5,
		Quantity: 0.2,
		Side:     SideAsk,
	}

	assert.InDelta(t, 13000.1, tr.Total(), 1e-9)
	assert.Equal(t, " 09:08:07     ASK          65,000.50     0.2000         13,000.10", tr.Row())
}
