// Package server wires the ShareVault components together and runs the
// gRPC and HTTP transports until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/httpapi"
	"github.com/dmitrijs2005/sharevault/internal/server/keys"
	"github.com/dmitrijs2005/sharevault/internal/server/metrics"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharevault/internal/server/services"
	"github.com/dmitrijs2005/sharevault/internal/server/storage"
	"github.com/dmitrijs2005/sharevault/internal/server/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/sharevault/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	metrics      *metrics.Metrics
	fileService  *services.FileService
	shareService *services.ShareService
	shutdown     func(context.Context) error
}

// openRepositories returns the Postgres manager when a DSN is configured and
// the in-memory one otherwise. Migrations run before the manager is used.
func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, *sql.DB, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewInMemoryRepositoryManager(), nil, nil
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return m, db, nil
}

func newKeyStore(c *config.Config, m repomanager.RepositoryManager) (keys.Store, error) {
	switch c.MasterKeyBackend {
	case config.BackendFile:
		return keys.NewFileStore(c.MasterKeyPath), nil
	case config.BackendDB:
		return m.MasterKeys(m.Conn()), nil
	case config.BackendMemory:
		return keys.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown master key backend %q", c.MasterKeyBackend)
}

func newObjectStore(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
	switch c.StorageBackend {
	case config.BackendS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	case config.BackendLocal:
		return storage.NewLocalStore(c.StorageDir)
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
}

// NewApp builds every component from c. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {

	logger := logging.New(c.LogLevel, c.LogFormat, w)

	shutdown, err := tracing.Setup(c.TracingEnabled, w)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	rm, db, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, shutdown: shutdown}

	ks, err := newKeyStore(c, rm)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	km := keys.NewManager(ks)
	if err := km.InitializeMasterKey(ctx); err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("master key init error: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.metrics = metrics.NewMetricsWithRegistry(reg, reg)
	app.shareService = services.NewShareService(rm, c, logger, app.metrics)
	app.fileService = services.NewFileService(rm, km, store, app.shareService, c, logger, app.metrics)

	return app, nil
}

func (app *App) close(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}
	if app.shutdown != nil {
		if err := app.shutdown(context.Background()); err != nil {
			app.logger.Error(ctx, "tracer shutdown failed", "error", err)
		}
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	// leaves headroom over the upload limit for the JSON envelope
	maxMsg := int(app.config.MaxUploadSize)*2 + 1<<20

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.fileService, app.shareService, app.config.SecretKey, maxMsg)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.fileService, app.shareService, app.metrics.Handler(), app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}
