// Package server initializes and runs the vault web service: the HTTP API
// with route protection and the gRPC health endpoint, with graceful shutdown
// on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/codevault/codevault/internal/auth"
	"github.com/codevault/codevault/internal/config"
	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/server/health"
	"github.com/codevault/codevault/internal/server/httpapi"
	"github.com/codevault/codevault/internal/store"
	"github.com/codevault/codevault/internal/vault"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	adapter *store.Adapter
	manager *vault.Manager
	auth    *auth.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	adapter, db, err := store.Connect(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		adapter: adapter,
		manager: vault.NewManager(adapter, logger, vault.WithMaxAttachmentSize(c.MaxAttachmentSize)),
		auth:    auth.NewService(c, logger),
	}, nil
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
	h := httpapi.NewHandler(app.manager, app.auth, app.adapter, httpapi.Options{
		MaxAttachmentSize: app.config.MaxAttachmentSize,
		SessionValidity:   app.config.SessionValidityDuration,
		SecureCookie:      app.config.SecureCookie,
	}, app.logger)

	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           httpapi.NewRouter(h, app.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := health.NewServer(app.config.EndpointAddrHealth, app.db, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.manager.Refresh(ctx); err != nil {
		app.logger.Warn(ctx, "initial refresh failed", "error", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
