package archive

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Deleter removes archived candles that opened before a cutoff.
type Deleter interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// MidnightPruner trims the archive to a retention period, once at startup,
// then at every UTC midnight.
type MidnightPruner struct {
	Store     Deleter
	Retention time.Duration
	Timeout   time.Duration
	Logger    *zap.Logger

	now  func() time.Time
	done chan struct{}
}

// Start runs the pruner until ctx is cancelled. A non-positive retention
// disables it.
func (m *MidnightPruner) Start(ctx context.Context) {
	if m.Retention <= 0 {
		return
	}
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		m.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Until(nextMidnight(m.clock()))):
				m.runOnce(ctx)
			}
		}
	}()
}

// Wait blocks until the goroutine started by Start has returned. It returns
// at once if the pruner never started.
func (m *MidnightPruner) Wait() {
	if m.done != nil {
		<-m.done
	}
}

func (m *MidnightPruner) runOnce(ctx context.Context) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cutoff := m.clock().Add(-m.Retention)
	n, err := m.Store.DeleteBefore(ctx, cutoff)
	if err != nil {
		m.Logger.Warn("failed to prune candle archive", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}
	m.Logger.Info("pruned candle archive", zap.Time("cutoff", cutoff), zap.Int64("deleted", n))
}

func (m *MidnightPruner) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func nextMidnight(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
