package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/stockwatch/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stockwatch HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, log, err := bootstrap(cmd.Context())
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}
	cfg := a.Config()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}
	if cfg.Provider.APIKey == "" {
		log.Warn("no provider api key configured, every lookup will fail")
	}

	log.Info("starting stockwatch server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Type),
	)

	deps := api.Dependencies{
		Dashboard: a.Dashboard(),
		Resolver:  a.Resolver(),
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		deps.Metrics = a.Metrics()
		metricsPath = cfg.Metrics.Path
	}

	server, err := api.NewServer(api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		APIKey:         cfg.Server.APIKey,
		RequestTimeout: cfg.Provider.RequestTimeout,
		MetricsPath:    metricsPath,
	}, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down stockwatch server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
