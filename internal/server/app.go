// Package server wires the storage, registry, eligibility and transport
// layers together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/whistles/internal/cryptox"
	"github.com/dmitrijs2005/whistles/internal/filex"
	"github.com/dmitrijs2005/whistles/internal/logging"
	"github.com/dmitrijs2005/whistles/internal/server/backup"
	"github.com/dmitrijs2005/whistles/internal/server/config"
	"github.com/dmitrijs2005/whistles/internal/server/eligibility"
	"github.com/dmitrijs2005/whistles/internal/server/httpapi"
	"github.com/dmitrijs2005/whistles/internal/server/hub"
	"github.com/dmitrijs2005/whistles/internal/server/jobs"
	"github.com/dmitrijs2005/whistles/internal/server/metrics"
	"github.com/dmitrijs2005/whistles/internal/server/registry"
	"github.com/dmitrijs2005/whistles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/whistles/internal/server/services"
	"github.com/dmitrijs2005/whistles/internal/timex"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/whistles/internal/server/grpc"
)

const serviceName = "whistles"

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	store    *registry.BadgerStore
	registry *registry.Registry
	messages *services.MessageService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if _, err := cryptox.ParseKey(c.Secret); err != nil {
		return nil, fmt.Errorf("default partition secret: %w", err)
	}

	metrics.MustRegister(serviceName)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	registryDir, err := filex.EnsureDir(c.RegistryPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry dir: %w", err)
	}

	store, err := registry.OpenBadgerStore(registryDir, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry store: %w", err)
	}

	reg := registry.New(store,
		registry.NewWarpcastClient(c.WarpcastBaseURL, c.WarpcastMembersURL, c.UpstreamTimeout),
		registry.Config{
			RefreshInterval: c.RegistryRefreshInterval,
			UpstreamTimeout: c.UpstreamTimeout,
			MaxMembers:      c.MaxChannelMembers,
		}, logger)

	engine := eligibility.New(reg, eligibility.Config{
		PruneInterval:       timex.Days(c.PruneIntervalDays),
		LookbackWindow:      timex.Days(c.LookbackWindowDays),
		RequireChannelOptIn: c.RequireChannelOptIn,
		PruneSignalScope:    eligibility.PruneSignalScope(c.PruneSignalScope),
	}, logger)

	ms := services.NewMessageService(db, rm, c,
		hub.NewClient(c.NeynarBaseURL, c.NeynarAPIKey, c.UpstreamTimeout),
		engine,
		backup.NewS3Exporter(c),
		logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		store:    store,
		registry: reg,
		messages: ms,
	}, nil
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.messages, app.registry, app.config)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

func (app *App) startHTTPServer(ctx context.Context) error {
	return httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.registry, app.config).Run(ctx)
}

func (app *App) startRetention(ctx context.Context) error {
	cfg := jobs.DefaultRetentionConfig()
	if app.config.RetentionInterval > 0 {
		cfg.Schedule = app.config.RetentionInterval
	}
	cfg.CandidatePoll = app.config.RetentionCandidatePoll
	cfg.ExportFirst = app.config.RetentionExport

	jobs.NewRetentionSweeper(app.messages, app.registry, cfg, app.logger).Run(ctx)
	return nil
}

// Run blocks until a termination signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startGRPCServer(ctx) })
	g.Go(func() error { return app.startHTTPServer(ctx) })
	g.Go(func() error { return app.startRetention(ctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err.Error())
	}

	app.close()
	return err
}

func (app *App) close() {
	app.registry.Wait()
	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "closing registry store", "error", err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing database", "error", err.Error())
	}
}
