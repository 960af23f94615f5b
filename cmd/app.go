package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/pr-dashboard/internal/cache"
	"github.com/naka-gawa/pr-dashboard/internal/config"
	"github.com/naka-gawa/pr-dashboard/internal/gateway"
	"github.com/naka-gawa/pr-dashboard/internal/logging"
	"github.com/naka-gawa/pr-dashboard/internal/storage"
	"github.com/naka-gawa/pr-dashboard/internal/usecase"
)

// app holds everything a command needs, built once from the config.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     storage.Store
	dashboard *usecase.Dashboard
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newApp loads the config and injects dependencies. minLevel raises an "off" log level,
// which long-running commands use to keep their logs.
func newApp(ctx context.Context, cmd *cobra.Command, minLevel string) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if level == "" || level == logging.Off {
		level = minLevel
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	syncer := usecase.NewSyncer(
		githubGateway,
		cache.NewDataCache(store, time.Now, logger),
		cfg.Sync.Repositories,
		logger,
		usecase.WithParallelFetch(cfg.Sync.Parallel),
	)
	aggregator := usecase.NewAggregator(cfg.Sync.TeamMembers, time.Now, logger)
	dashboard := usecase.NewDashboard(syncer, aggregator, cache.NewSettingsStore(store, logger), cfg.Sync.LookbackDays, time.Now)

	return &app{cfg: cfg, logger: logger, store: store, dashboard: dashboard}, nil
}

func openStore(ctx context.Context, cfg config.Storage, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		return storage.NewPostgresStore(ctx, cfg.DSN, logger)
	default:
		return storage.NewFileStore(cfg.Path)
	}
}
