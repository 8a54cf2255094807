package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoinPulse/internal/service/stream"
	pkgcache "CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	applogger "CoinPulse/pkg/logger"
)

// App owns the process lifecycle: the stream collector, the HTTP server
// and the infrastructure clients that need orderly shutdown.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	collector  *stream.Collector
	chClient   *pkgch.Client
	cacheStore pkgcache.Store
	closers    []func() error

	httpServer *xhttp.Server
}

// New creates an App. collector, chClient and cacheStore may be nil when
// the corresponding subsystem is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *stream.Collector,
	chClient *pkgch.Client,
	cacheStore pkgcache.Store,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		handler:    handler,
		collector:  collector,
		chClient:   chClient,
		cacheStore: cacheStore,
	}
}

// RegisterCloser adds a resource to be closed on shutdown, last-in
// first-out.
func (a *App) RegisterCloser(close func() error) {
	a.closers = append(a.closers, close)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if a.collector != nil {
		go a.collector.Run(ctx)
		a.log.Info("stream collector started",
			applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops the server and closes infrastructure in reverse order.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		a.collector.Close()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("resource close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cacheStore != nil {
		if err := a.cacheStore.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
