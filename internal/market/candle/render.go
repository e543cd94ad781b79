package candle

import (
	"math"
	"strconv"
)

// MinBodyHeight keeps doji candles (open == close) visible.
const MinBodyHeight = 0.0001

const (
	ColorUp   = "#0ECB81"
	ColorDown = "#F6465D"
)

// IsBullish reports whether the candle closed at or above its open.
func IsBullish(c Candle) bool {
	return c.Close >= c.Open
}

// Color is the fill used for both the body and the volume bar.
func Color(c Candle) string {
	if IsBullish(c) {
		return ColorUp
	}
	return ColorDown
}

// BodyRange returns the bottom and top of the candle body.
func BodyRange(c Candle) (bottom, top float64) {
	bottom = math.Min(c.Open, c.Close)
	return bottom, bottom + math.Max(math.Abs(c.Close-c.Open), MinBodyHeight)
}

// WickRange returns the low and high of the candle.
func WickRange(c Candle) (low, high float64) {
	return c.Low, c.High
}

// FormatVolume renders a volume axis label: 1.2M, 35K or 812.
func FormatVolume(v float64) string {
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', 1, 64) + "M"
	case v >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', 0, 64) + "K"
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}

// TimeLabels returns an "HH:MM" x-axis label for every step-th candle,
// keyed by index.
func TimeLabels(candles []Candle, step int) map[int]string {
	if step <= 0 {
		step = 1
	}
	labels := make(map[int]string, len(candles)/step+1)
	for i := 0; i < len(candles); i += step {
		labels[i] = candles[i].OpenTime.Format("15:04")
	}
	return labels
}
