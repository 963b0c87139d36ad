package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"

	"github.com/mwantia/cpkgs/internal/api"
	config "github.com/mwantia/cpkgs/internal/config/server"
	"github.com/mwantia/cpkgs/internal/registry"
	"github.com/mwantia/cpkgs/pkg/db/store"
	"github.com/mwantia/cpkgs/pkg/log"
)

// RegistryServer owns the store handle and the HTTP listener for their
// whole lifetime: opened at startup, closed at shutdown, never a
// hidden singleton.
type RegistryServer struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg   *config.BaseServerConfig
	sc    *container.ServiceContainer
	log   log.LoggerService
	store *store.SQLiteStore
}

func NewServer(cfg *config.BaseServerConfig) *RegistryServer {
	return &RegistryServer{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("cpkgs", cfg.Log),
	}
}

func (rs *RegistryServer) setupServices(svc *registry.Service) error {
	errs := container.Errors{}

	rs.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](rs.sc,
		container.With[log.LoggerService](),
		container.WithInstance(rs.log)))

	rs.log.Debug("Registering 'RegistryStore'...")
	errs.Add(container.Register[store.SQLiteStore](rs.sc,
		container.With[store.RegistryStore](),
		container.WithInstance(rs.store)))

	rs.log.Debug("Registering 'RegistryService'...")
	errs.Add(container.Register[registry.Service](rs.sc,
		container.WithInstance(svc)))

	return errs.Errors()
}

// Serve opens the store, runs migrations and serves the registry API
// until the context is cancelled or an interrupt arrives.
func (rs *RegistryServer) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	rs.mutex.Lock()

	st, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: rs.cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		rs.mutex.Unlock()
		return fmt.Errorf("failed to create registry store: %w", err)
	}
	rs.store = st

	if err := rs.store.Connect(ctx); err != nil {
		rs.mutex.Unlock()
		return fmt.Errorf("failed to connect registry store: %w", err)
	}
	if err := rs.store.Migrate(ctx); err != nil {
		rs.mutex.Unlock()
		return fmt.Errorf("failed to migrate registry store: %w", err)
	}

	svc := registry.NewService(rs.store, rs.log)
	if err := rs.setupServices(svc); err != nil {
		rs.mutex.Unlock()
		return err
	}

	httpServer := &http.Server{
		Addr:    rs.cfg.HTTP.Address,
		Handler: api.NewHandler(svc, rs.log),
	}

	rs.wait.Add(1)
	go func() {
		defer rs.wait.Done()

		rs.log.Info("Registry listening on 'http://%s'", rs.cfg.HTTP.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rs.log.Error("HTTP server failed: %v", err)
			cancel()
		}
	}()

	rs.mutex.Unlock()
	<-ctx.Done()

	timeout, err := time.ParseDuration(rs.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdown); err != nil {
		rs.log.Warn("HTTP shutdown incomplete: %v", err)
	}

	if err := rs.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	if err := rs.store.Close(); err != nil {
		return fmt.Errorf("failed to close registry store: %w", err)
	}

	rs.wait.Wait()
	return nil
}
