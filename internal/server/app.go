// Package server wires the registry server together: lease store, reaper,
// HTTP API and signal handling.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/here/internal/clock"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/server/config"
	"github.com/dmitrijs2005/here/internal/server/httpapi"
	"github.com/dmitrijs2005/here/internal/server/metrics"
	"github.com/dmitrijs2005/here/internal/server/reaper"
	"github.com/dmitrijs2005/here/internal/server/registry"
	"github.com/dmitrijs2005/here/internal/server/storage"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	registry *registry.Service
	reaper   *reaper.Reaper
	metrics  *metrics.Metrics
}

// NewApp builds the server from cfg. The lease store is opened once here so
// a missing file is created and an unusable one is reported before serving.
func NewApp(ctx context.Context, cfg *config.Config, version string, logOut io.Writer) (*App, error) {
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	opts := cfg.StoreOptions()
	s, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	logger.Info(ctx, "lease store ready", "path", opts.Path, "backend", string(opts.Backend), "leases", s.Len())
	if err := s.Close(); err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics {
		m = metrics.New()
	}

	c := clock.Real{}
	return &App{
		config:   cfg,
		logger:   logger,
		registry: registry.NewService(opts, cfg.DefaultLifetime, version, c, logger, m),
		reaper:   reaper.New(opts, cfg.ReaperConfig(), c, logger, m),
		metrics:  m,
	}, nil
}

// Handler returns the HTTP API handler.
func (app *App) Handler() http.Handler {
	opts := httpapi.Options{CORSOrigins: app.config.CORSOrigins}
	if app.metrics != nil {
		opts.Metrics = app.metrics.Handler()
	}
	return httpapi.NewHandler(app.registry, app.logger, opts)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigs
		app.logger.Info(context.Background(), "signal received", "signal", sig.String())
		cancelFunc()
	}()
}

// Run listens on the configured address and serves until SIGINT/SIGTERM or
// ctx cancellation.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)

	ln, err := net.Listen("tcp", app.config.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.Bind, err)
	}
	return app.Serve(ctx, ln)
}

// Serve runs the reaper and the HTTP API on ln until ctx is done. Shutdown is
// abrupt: open connections are closed without waiting for handlers.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "bind", ln.Addr().String())

	srv := &http.Server{Handler: app.Handler()}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = app.reaper.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
			app.logger.Error(ctx, "http server failed", "error", err)
		}
	}

	cancelFunc()
	_ = srv.Close()
	wg.Wait()
	app.logger.Info(context.Background(), "server stopped")
	return serveErr
}
