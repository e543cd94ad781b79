package dashboard

import (
	"context"
	"errors"
	"fmt"

	"tickerdash/config"
	"tickerdash/internal/api"
	"tickerdash/internal/archive"
	"tickerdash/internal/binance/history"
	"tickerdash/internal/market"
	"tickerdash/internal/market/candle"
	"tickerdash/internal/prefs"
	"tickerdash/internal/session"
	"tickerdash/pkg/binance"
	"tickerdash/pkg/storage/postgres"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dashboard is the running application: the active-pair session and the
// HTTP surface over it.
type Dashboard struct {
	Session *session.Session
	Router  *gin.Engine

	archive *postgres.PostgresClient
	pruner  *archive.MidnightPruner
	cancel  context.CancelFunc
	logger  *zap.Logger
}

// Start wires the exchange clients, the optional candle archive and the API,
// then activates the remembered pair (or the first listed one).
func Start(cfg *config.Config, logger *zap.Logger) (*Dashboard, error) {
	if _, err := binance.ParseKlineInterval(cfg.Chart.Interval); err != nil {
		return nil, fmt.Errorf("chart interval: %w", err)
	}
	interval := binance.KlineInterval(cfg.Chart.Interval)
	policy, err := candle.ParseNewBucketPolicy(cfg.Chart.NewBucketPolicy)
	if err != nil {
		return nil, err
	}
	catalog, err := market.NewCatalog(cfg.Symbols)
	if err != nil {
		return nil, fmt.Errorf("invalid symbols: %w", err)
	}

	store := prefs.Open(cfg.Prefs.Path, logger)

	restClient := binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout, cfg.Binance.REST.RateLimit)
	wsClient := binance.NewWSClient(cfg.Binance.WS.URL, cfg.Binance.WS.ReconnectDelay, logger)
	loader := &history.Loader{
		Fetcher:  restClient,
		Interval: interval,
		Limit:    cfg.Chart.Capacity,
		Timeout:  cfg.Binance.REST.Timeout,
		Logger:   logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{cancel: cancel, logger: logger}

	opts := session.Options{
		Interval:     interval,
		Capacity:     cfg.Chart.Capacity,
		Policy:       policy,
		TapeCapacity: cfg.Tape.Capacity,
		Logger:       logger,
	}
	if cfg.Archive.Enabled {
		client, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, cfg.Archive.CreateDB)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to open candle archive: %w", err)
		}
		d.archive = client
		opts.Archiver = client
		loader.Fallback = client

		d.pruner = &archive.MidnightPruner{Store: client, Retention: cfg.Archive.Retention, Logger: logger}
		d.pruner.Start(ctx)
	}

	d.Session = session.New(loader, wsClient, opts)
	d.Session.Select(initialPair(catalog, store.Get(), logger))

	handler := api.NewHandler(d.Session, catalog, store, cfg.Chart.LabelStep, logger)
	if d.archive != nil {
		handler.WithArchive(d.archive)
	}
	d.Router = api.NewRouter(handler, logger)
	return d, nil
}

// initialPair resolves the remembered symbol, falling back to the catalog
// default when it is unset or no longer listed.
func initialPair(catalog *market.Catalog, p prefs.Preferences, logger *zap.Logger) market.Pair {
	if p.Symbol == "" {
		return catalog.Default()
	}
	pair, err := catalog.Lookup(p.Symbol)
	if err != nil {
		logger.Warn("ignoring remembered symbol", zap.String("symbol", p.Symbol), zap.Error(err))
		return catalog.Default()
	}
	return pair
}

// Close stops the active feed and the pruner, then releases the archive.
func (d *Dashboard) Close() error {
	d.Session.Close()
	d.cancel()
	if d.pruner != nil {
		d.pruner.Wait()
	}

	var errs []error
	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
	}
	d.logger.Info("dashboard stopped")
	return errors.Join(errs...)
}
