// Package server wires the FileKeeper components together and runs the
// HTTP API, the gRPC admin API and the orphan sweeper until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/access"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/filestore"
	"github.com/dmitrijs2005/filekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/filekeeper/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	gate     *access.Gate
	users    *services.UserService
	blocks   *services.TextBlockService
	registry *registry.Registry
	sweeper  *registry.Sweeper
	metrics  *prometheus.Registry
}

// NewApp opens the storage backends and builds every service. With an
// empty DSN the repositories live in memory.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := newFileStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("file store init error: %w", err)
	}

	var (
		db   *sql.DB
		dbtx dbx.DBTX
		rm   repomanager.RepositoryManager
		tx   dbx.TxRunner
	)
	if c.DatabaseDSN != "" {
		db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		dbtx, tx = db, dbx.NewTxRunner(db)
	} else {
		logger.Warn(ctx, "no database DSN configured, using in-memory repositories")
		rm, tx = memory.NewInMemoryRepositoryManager(nil), memory.TxRunner{}
	}

	authority, err := auth.NewAuthority([]byte(c.SecretKey), c.TokenTTL)
	if err != nil {
		return nil, err
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	users := services.NewUserService(dbtx, rm, authority, c.BcryptCost, logger)
	reg := registry.New(rm.Files(dbtx), store, logger)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		gate:     access.NewGate(authority, access.NewResolver(rm.Users(dbtx)), nil, logger),
		users:    users,
		blocks:   services.NewTextBlockService(dbtx, tx, rm, reg, logger),
		registry: reg,
		sweeper:  registry.NewSweeper(reg, c.SweepInterval, c.Retention, registry.NewMetrics(metrics), logger),
		metrics:  metrics,
	}

	if c.AdminLogin != "" {
		if err := users.EnsureAdmin(ctx, c.AdminLogin, c.AdminPassword); err != nil {
			app.close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info(ctx, "bootstrap admin ensured", "login", c.AdminLogin)
	}

	return app, nil
}

func newFileStore(ctx context.Context, c *config.Config) (filestore.Store, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return filestore.NewS3Store(ctx, filestore.S3Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			Ext:       c.FileExt,
		})
	case config.StorageDisk:
		return filestore.NewDiskStore(c.StorageDir, c.FileExt), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// Handler returns the HTTP API handler.
func (app *App) Handler() http.Handler {
	return httpapi.NewRouter(
		httpapi.Config{
			RequestTimeout: app.config.RequestTimeout,
			CORSOrigins:    app.config.CORSOrigins,
			MaxUploadBytes: app.config.MaxUploadBytes,
		},
		httpapi.Deps{
			Gate:       app.gate,
			Users:      app.users,
			Files:      app.registry,
			Sweeper:    app.sweeper,
			Blocks:     app.blocks,
			Registerer: app.metrics,
			Gatherer:   app.metrics,
			Logger:     app.logger,
		},
	)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.gate, app.registry, app.sweeper, app.config.RequestTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	app.sweeper.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.sweeper.Stop()
	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close failed", "error", err)
		}
	}
}
