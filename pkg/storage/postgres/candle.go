package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickerdash/internal/market/candle"

	"gorm.io/gorm/clause"
)

var ErrDuplicateCandle = errors.New("duplicate candle skipped")

func (p *PostgresClient) InsertCandle(ctx context.Context, record *CandleRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "interval"},
			{Name: "open_time"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: symbol=%s interval=%s open_time=%s",
			ErrDuplicateCandle,
			record.Symbol,
			record.Interval,
			record.OpenTime.Format(time.RFC3339),
		)
	}

	return nil
}

// ArchiveCandle stores a closed candle. A candle that is already archived is
// not an error.
func (p *PostgresClient) ArchiveCandle(ctx context.Context, symbol, interval string, c candle.Candle) error {
	err := p.InsertCandle(ctx, ToCandleRecord(symbol, interval, c))
	if errors.Is(err, ErrDuplicateCandle) {
		return nil
	}
	return err
}

// RecentCandles returns up to limit archived candles, oldest first.
func (p *PostgresClient) RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error) {
	var records []CandleRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND interval = ?", symbol, interval).
		Order("open_time DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	out := make([]candle.Candle, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r.Candle()
	}
	return out, nil
}

// DeleteBefore removes every candle that opened before the cutoff and
// reports how many were removed.
func (p *PostgresClient) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tx := p.DB.WithContext(ctx).
		Where("open_time < ?", before).
		Delete(&CandleRecord{})
	return tx.RowsAffected, tx.Error
}

func ToCandleRecord(symbol, interval string, c candle.Candle) *CandleRecord {
	return &CandleRecord{
		Symbol:   symbol,
		Interval: interval,
		OpenTime: c.OpenTime.UTC(),
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Volume:   c.Volume,
	}
}

func (r CandleRecord) Candle() candle.Candle {
	return candle.Candle{
		OpenTime: r.OpenTime,
		Open:     r.Open,
		High:     r.High,
		Low:      r.Low,
		Close:    r.Close,
		Volume:   r.Volume,
	}
}
