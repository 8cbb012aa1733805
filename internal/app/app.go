// Package app wires configuration into the running services shared by the
// CLI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/stockwatch/internal/config"
	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/dashboard"
	"github.com/newthinker/stockwatch/internal/listing"
	"github.com/newthinker/stockwatch/internal/metrics"
	"github.com/newthinker/stockwatch/internal/provider/fmp"
	"github.com/newthinker/stockwatch/internal/resolver"
	"github.com/newthinker/stockwatch/internal/storage/kv"
	"github.com/newthinker/stockwatch/internal/watchlist"
	"go.uber.org/zap"
)

// App is the application orchestrator
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	metrics   *metrics.Registry
	storage   kv.Storage
	store     *watchlist.Store
	provider  *fmp.Client
	listings  *listing.Index
	resolver  *resolver.Resolver
	dashboard *dashboard.Service
}

// Option customizes New.
type Option func(*App)

// WithStorage replaces the backend selected by the config.
func WithStorage(s kv.Storage) Option {
	return func(a *App) { a.storage = s }
}

// New builds every service from cfg. The watchlist is not read until Load.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("config is nil"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if a.storage == nil {
		storage, err := kv.New(kv.Config{
			Type: cfg.Storage.Type,
			Path: cfg.Storage.Path,
			S3: kv.S3Config{
				Bucket:    cfg.Storage.S3.Bucket,
				Endpoint:  cfg.Storage.S3.Endpoint,
				Region:    cfg.Storage.S3.Region,
				AccessKey: cfg.Storage.S3.AccessKey,
				SecretKey: cfg.Storage.S3.SecretKey,
				Prefix:    cfg.Storage.S3.Prefix,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("creating storage: %w", err)
		}
		a.storage = storage
	}

	listings, err := listing.LoadFile(cfg.Listing.Path)
	if err != nil {
		return nil, fmt.Errorf("loading listing: %w", err)
	}
	a.listings = listings

	a.metrics = metrics.NewRegistry()

	a.provider = fmp.New(fmp.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
	}, logger.Named("fmp"))
	a.provider.SetRecorder(a.metrics)

	a.resolver = resolver.New(a.provider, a.listings, resolver.Config{
		Exchange: cfg.Provider.Exchange,
		Limit:    cfg.Provider.SearchLimit,
	}, logger.Named("resolver"))
	a.resolver.SetRecorder(a.metrics)

	a.store = watchlist.NewStore(a.storage, watchlist.Config{Key: cfg.Storage.Key}, logger.Named("watchlist"))
	a.store.SetRecorder(a.metrics)

	a.dashboard = dashboard.NewService(a.store, a.provider, a.resolver, dashboard.Config{
		HistoryDays: cfg.Provider.HistoryDays,
	}, logger.Named("dashboard"))

	logger.Debug("application initialized",
		zap.String("storage", cfg.Storage.Type),
		zap.Int("listed_symbols", a.listings.Len()),
	)
	return a, nil
}

// Load reads the persisted watchlist. A malformed slot is reported but not
// fatal: the app continues with an empty watchlist.
func (a *App) Load(ctx context.Context) error {
	symbols, err := a.store.Load(ctx)
	if err != nil && !errors.Is(err, core.ErrMalformedState) {
		return err
	}
	a.metrics.SetWatchlistSize(len(symbols))
	a.logger.Info("watchlist loaded", zap.Int("symbols", len(symbols)))
	return nil
}

// WithTimeout derives the per-call deadline for provider requests.
func (a *App) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := a.cfg.Provider.RequestTimeout; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (a *App) Config() *config.Config        { return a.cfg }
func (a *App) Metrics() *metrics.Registry    { return a.metrics }
func (a *App) Store() *watchlist.Store       { return a.store }
func (a *App) Resolver() *resolver.Resolver  { return a.resolver }
func (a *App) Dashboard() *dashboard.Service { return a.dashboard }
func (a *App) Provider() *fmp.Client         { return a.provider }
func (a *App) Listings() *listing.Index      { return a.listings }
