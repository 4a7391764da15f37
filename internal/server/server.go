// Package server assembles the eduzap HTTP service from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/pinkoogupta/eduzap/api"
	"github.com/pinkoogupta/eduzap/auth"
	"github.com/pinkoogupta/eduzap/cache"
	"github.com/pinkoogupta/eduzap/config"
	"github.com/pinkoogupta/eduzap/httpx"
	"github.com/pinkoogupta/eduzap/notify"
	"github.com/pinkoogupta/eduzap/ratelimit"
	"github.com/pinkoogupta/eduzap/requests"
)

// App is a fully wired service ready to Run.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	server  *httpx.Server
	hub     *notify.Hub
	service *requests.Service
	closers []func() error
}

// Build connects the configured backends and registers the HTTP routes.
// Resources opened before a failure are released.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	var checks []namedCheck

	repo, repoCheck, err := app.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	if repoCheck != nil {
		checks = append(checks, namedCheck{"database", repoCheck})
	}

	store, cacheCheck, err := app.openCache()
	if err != nil {
		return nil, err
	}
	if cacheCheck != nil {
		checks = append(checks, namedCheck{"cache", cacheCheck})
	}

	blobs, err := app.openBlobStore(ctx)
	if err != nil {
		return nil, err
	}

	app.hub = notify.NewHub(notify.WithBuffer(cfg.Events.Buffer), notify.WithLogger(logger))
	app.closers = append(app.closers, func() error {
		app.hub.Close()
		return nil
	})

	opts := []requests.Option{
		requests.WithPublisher(app.hub),
		requests.WithLogger(logger),
		requests.WithCacheTTL(cfg.Cache.TTL),
		requests.WithPagination(requests.Pagination{
			DefaultLimit: cfg.Pagination.DefaultLimit,
			MaxLimit:     cfg.Pagination.MaxLimit,
		}),
		requests.WithLimiter(ratelimit.NewDebouncer(ratelimit.Options{
			Window:     cfg.Search.DebounceWindow,
			MaxOrigins: cfg.Search.MaxOrigins,
		})),
	}
	if store != nil {
		opts = append(opts, requests.WithCache(store))
	}
	if blobs != nil {
		opts = append(opts, requests.WithBlobStore(blobs))
	}
	app.service, err = requests.NewService(repo, opts...)
	if err != nil {
		return nil, err
	}

	guard, err := app.adminGuard(store)
	if err != nil {
		return nil, err
	}

	maxImage, err := cfg.Blob.MaxImageBytes()
	if err != nil {
		return nil, err
	}
	handlerOpts := []api.Option{
		api.WithHub(app.hub),
		api.WithMaxImageSize(maxImage),
		api.WithLogger(logger),
		api.WithHeartbeat(cfg.Events.Heartbeat),
	}
	for _, c := range checks {
		handlerOpts = append(handlerOpts, api.WithHealthCheck(c.name, c.check))
	}
	handler := api.NewHandler(app.service, handlerOpts...)

	app.server = httpx.NewServer(
		httpx.WithLogger(logger),
		httpx.WithAddress(cfg.Server.Addr),
		httpx.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		httpx.WithTrustProxy(cfg.Server.TrustProxy),
		httpx.WithBodyLimit(cfg.Server.BodyLimit),
		httpx.WithCORS(corsConfig(cfg.Server.CORSOrigins)),
		httpx.AppendMiddlewares(httpx.MetricsMiddleware()),
	)
	app.server.RegisterRoutes(handler.Routes(cfg.Server.Prefix, guard))

	logger.InfoContext(ctx, "service assembled",
		"database", cfg.Database.Driver,
		"cache", cfg.Cache.Driver,
		"blob", cfg.Blob.Driver,
		"admin_guard", guard != nil,
	)
	return app, nil
}

type namedCheck struct {
	name  string
	check api.HealthCheck
}

// Handler exposes the routed HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Service returns the request service backing the routes.
func (a *App) Service() *requests.Service { return a.service }

// Run serves HTTP until ctx is cancelled. Closing the hub on shutdown ends
// open event streams so the server can drain.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Start(gctx, httpx.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout))
	})
	g.Go(func() error {
		<-gctx.Done()
		a.hub.Close()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) adminGuard(store cache.Store) (httpx.MiddlewareFunc, error) {
	if a.cfg.Admin.TokenHash == "" {
		a.logger.Warn("admin token hash not configured; dashboard endpoints are unauthenticated")
		return nil, nil
	}
	var opts []auth.AdminVerifierOption
	if store != nil {
		opts = append(opts, auth.WithVerifiedCache(store, 0))
	}
	verifier, err := auth.NewAdminVerifier(a.cfg.Admin.TokenHash, opts...)
	if err != nil {
		return nil, fmt.Errorf("server: admin token hash: %w", err)
	}
	return api.AdminGuard(verifier)
}

func corsConfig(origins []string) *middleware.CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}
}
