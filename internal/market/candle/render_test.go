package candle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// go test -v --run TestFormatVolume
func TestFormatVolume(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{812.9, "812"},
		{999.99, "999"},
		{1_000, "1K"},
		{35_400, "35K"},
		{999_999, "1000K"},
		{1_000_000, "1.0M"},
		{2_345_678, "2.3M"},
		{-5.5, "-5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatVolume(tc.in), "FormatVolume(%v)", tc.in)
	}
}

// go test -v --run TestBodyAndWick
func TestBodyAndWick(t *testing.T) {
	up := bar(0, 10, 14, 9, 12, 1)
	bottom, top := BodyRange(up)
	assert.Equal(t, 10.0, bottom)
	assert.Equal(t, 12.0, top)
	assert.True(t, IsBullish(up))
	assert.Equal(t, ColorUp, Color(up))

	down := bar(0, 12, 14, 9, 10, 1)
	bottom, top = BodyRange(down)
	assert.Equal(t, 10.0, bottom)
	assert.Equal(t, 12.0, top)
	assert.False(t, IsBullish(down))
	assert.Equal(t, ColorDown, Color(down))

	doji := bar(0, 10, 11, 9, 10, 1)
	bottom, top = BodyRange(doji)
	assert.Equal(t, 10.0, bottom)
	assert.InDelta(t, 10.0001, top, 1e-12)
	assert.True(t, IsBullish(doji))

	low, high := WickRange(up)
	assert.Equal(t, 9.0, low)
	assert.Equal(t, 14.0, high)
}

// go test -v --run TestTimeLabels
func TestTimeLabels(t *testing.T) {
	labels := TimeLabels(bars(25), 10)

	assert.Equal(t, map[int]string{0: "12:00", 10: "12:10", 20: "12:20"}, labels)
	assert.Len(t, TimeLabels(bars(3), 0), 3)
}
