package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tickerdash/internal/market/candle"
)

// ParseKlineList converts the REST kline payload (array of mixed-type rows)
// into candles. Unlike the stream, one bad row poisons the whole batch: a
// chart with a silent hole is worse than a failed load.
func ParseKlineList(raw [][]json.RawMessage) ([]candle.Candle, error) {
	out := make([]candle.Candle, 0, len(raw))

	for i, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: row %d has %d fields", candle.ErrMalformedBar, i, len(row))
		}

		var start int64
		if err := json.Unmarshal(row[0], &start); err != nil {
			return nil, fmt.Errorf("%w: row %d open time: %v", candle.ErrMalformedBar, i, err)
		}

		var values [5]float64
		for j := range values {
			var s string
			if err := json.Unmarshal(row[j+1], &s); err != nil {
				return nil, fmt.Errorf("%w: row %d field %d: %v", candle.ErrMalformedBar, i, j+1, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d field %d: %v", candle.ErrMalformedBar, i, j+1, err)
			}
			values[j] = v
		}

		out = append(out, candle.Candle{
			OpenTime: time.UnixMilli(start),
			Open:     values[0],
			High:     values[1],
			Low:      values[2],
			Close:    values[3],
			Volume:   values[4],
		})
	}
	return out, nil
}

// ToUpdate converts a stream kline payload into a window update.
func (k *KlinePayload) ToUpdate() (candle.Update, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var values [5]float64
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return candle.Update{}, fmt.Errorf("%w: %v", candle.ErrMalformedUpdate, err)
		}
		values[i] = v
	}
	if k.StartTime <= 0 {
		return candle.Update{}, fmt.Errorf("%w: missing open time", candle.ErrMalformedUpdate)
	}

	return candle.Update{
		OpenTime: time.UnixMilli(k.StartTime),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
		Final:    k.Final,
	}, nil
}
