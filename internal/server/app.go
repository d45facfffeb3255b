// Package server wires storage, services and the REST and gRPC APIs
// together and runs them until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/config"
	"github.com/dmitrijs2005/ucredit/internal/server/httpapi"
	"github.com/dmitrijs2005/ucredit/internal/server/metrics"
	"github.com/dmitrijs2005/ucredit/internal/server/outbox"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ucredit/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/ucredit/internal/server/grpc"
)

const txAttempts = 3

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	outbox     outbox.Store
	samples    *services.SampleService
	reconciler *services.Reconciler
	http       *httpapi.HTTPServer
	grpc       *gs.GRPCServer
}

// openStorage returns the Postgres store when a DSN is configured and the
// in-memory store otherwise.
func openStorage(ctx context.Context, c *config.Config) (*sql.DB, dbx.Transactor, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return nil, dbx.NewLocalTransactor(), repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}

	return db, dbx.NewSQLTransactor(db, txAttempts), m, nil
}

func openOutbox(c *config.Config) (outbox.Store, error) {
	if c.OutboxPath == "" {
		return outbox.NewMemoryStore(), nil
	}
	return outbox.OpenBoltStore(c.OutboxPath)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}

	db, tx, m, err := openStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ob, err := openOutbox(c)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("outbox init error: %w", err)
	}

	mt := metrics.New()
	if n, err := ob.Len(ctx); err == nil {
		mt.SetOutboxPending(n)
	}

	users := services.NewUserService(tx, m, logger)
	dists := services.NewDistributionService(tx, m, logger)
	courses := services.NewCourseService(tx, m, ob, mt, logger)
	samples := services.NewSampleService(users, dists, courses)
	authn := auth.NewJWTAuthenticator(c.SecretKey, c.AccessTokenValidityDuration)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		outbox:     ob,
		samples:    samples,
		reconciler: services.NewReconciler(courses, ob, c.ReconcileBatchSize, mt, logger),
		http: httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, httpapi.Services{
			Courses:       courses,
			Distributions: dists,
			Users:         users,
			Samples:       samples,
			Exports:       services.NewPlanExportService(users, dists, courses, c),
		}, authn, mt),
		grpc: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, courses, authn),
	}, nil
}

func (app *App) seed(ctx context.Context) error {
	u, warnings, err := app.samples.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed samples: %w", err)
	}
	for _, w := range warnings {
		app.logger.Warn(ctx, "sample propagation failed", "course_id", w.CourseID, "step", w.Step, "error", w.Err)
	}
	app.logger.Info(ctx, "sample data ready", "user_id", u.ID)
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.outbox.Close(); err != nil {
		app.logger.Error(ctx, "outbox close failed", "error", err)
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM/SIGQUIT arrives or one
// of the servers fails, then releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.close(ctx)

	app.logger.Info(ctx, "Starting app...")

	if app.config.SeedSamples {
		if err := app.seed(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.grpc.Run(gctx) })
	g.Go(func() error { return app.reconciler.Run(gctx, app.config.ReconcileInterval) })

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}
