package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/stockwatch/internal/app"
	"github.com/newthinker/stockwatch/internal/config"
	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/logger"
	"go.uber.org/zap"
)

// bootstrap loads config, builds the logger and the application, and reads
// the persisted watchlist.
func bootstrap(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, log, fmt.Errorf("initializing: %w", err)
	}
	if err := a.Load(ctx); err != nil {
		return nil, log, fmt.Errorf("loading watchlist: %w", err)
	}
	return a, log, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(debug, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log, nil
}

// explain turns lookup failures into messages a terminal user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, core.ErrQuotaExceeded):
		return fmt.Errorf("%s (%w)", core.ErrQuotaExceeded.Message, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("provider did not answer in time, raise provider.request_timeout: %w", err)
	default:
		return err
	}
}
