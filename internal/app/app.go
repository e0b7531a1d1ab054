// Package app wires configuration, fetchers, storage and the HTTP server
// into a running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/dzen"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/httpclient"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/ok"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/rutube"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/telegram"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/vk"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/fetcher/youtube"
	"github.com/vadimbarashkov/viewcounter/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/viewcounter/internal/config"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
	"github.com/vadimbarashkov/viewcounter/internal/usecase"
	"github.com/vadimbarashkov/viewcounter/pkg/headless"
	pgpkg "github.com/vadimbarashkov/viewcounter/pkg/postgres"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/viewcounter/internal/adapter/delivery/http"
)

const shutdownTimeout = 15 * time.Second

// NewLogger returns the service logger: JSON in prod, concise text otherwise.
func NewLogger(cfg *config.Config) *httplog.Logger {
	prod := cfg.Env == config.EnvProd

	return httplog.NewLogger("viewcounter", httplog.Options{
		JSON:            prod,
		Concise:         !prod,
		LogLevel:        slog.LevelInfo,
		RequestHeaders:  !prod,
		QuietDownRoutes: []string{"/healthz"},
		QuietDownPeriod: 10 * time.Second,
		Writer:          os.Stderr,
	})
}

// NewViewsUseCase builds the lookup use case with every platform fetcher
// configured from cfg. The returned cleanup releases the browser and the
// database pool and must be called once the use case is no longer needed.
func NewViewsUseCase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*usecase.ViewsUseCase, func(), error) {
	const op = "app.NewViewsUseCase"

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	hcOpts := []httpclient.Option{httpclient.WithTimeout(cfg.Fetcher.Timeout)}
	if cfg.Fetcher.UserAgent != "" {
		hcOpts = append(hcOpts, httpclient.WithUserAgent(cfg.Fetcher.UserAgent))
	}
	if cfg.Fetcher.ProxyURL != "" {
		hcOpts = append(hcOpts, httpclient.WithSOCKS5(cfg.Fetcher.ProxyURL))
	}
	hc := httpclient.New(hcOpts...)

	yt := youtube.New(hc,
		youtube.WithAPIKey(cfg.YouTube.APIKey),
		youtube.WithLogger(logger),
	)

	dzenOpts := []dzen.Option{dzen.WithLogger(logger)}
	if cfg.Dzen.BrowserFallback {
		renderer := headless.New(
			headless.WithExecPath(cfg.Dzen.ChromePath),
			headless.WithTimeout(cfg.Dzen.BrowserTimeout),
			headless.WithUserAgent(cfg.Fetcher.UserAgent),
		)
		closers = append(closers, renderer.Close)
		dzenOpts = append(dzenOpts, dzen.WithRenderer(renderer))
	}

	fetchers := map[entity.Platform]usecase.Fetcher{
		entity.PlatformVK: vk.New(hc,
			vk.WithAccessToken(cfg.VK.AccessToken),
			vk.WithAPIVersion(cfg.VK.APIVersion),
			vk.WithLogger(logger),
		),
		entity.PlatformOK:       ok.New(hc, ok.WithLogger(logger)),
		entity.PlatformRuTube:   rutube.New(hc, rutube.WithLogger(logger)),
		entity.PlatformDzen:     dzen.New(hc, dzenOpts...),
		entity.PlatformTelegram: telegram.New(hc),
	}

	ucOpts := []usecase.Option{
		usecase.WithWorkers(cfg.Fetcher.Workers),
		usecase.WithIDLength(cfg.LookupIDLength),
		usecase.WithLogger(logger),
	}

	if cfg.Postgres.Enabled {
		db, err := pgpkg.New(ctx, cfg.Postgres.DSN(), pgpkg.WithPool(
			cfg.Postgres.ConnMaxIdleTime,
			cfg.Postgres.ConnMaxLifetime,
			cfg.Postgres.MaxIdleConns,
			cfg.Postgres.MaxOpenConns,
		))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}
		closers = append(closers, func() { _ = db.Close() })

		version, err := pgpkg.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}
		logger.Info("lookup history enabled", slog.Uint64("schema_version", uint64(version)))

		ucOpts = append(ucOpts, usecase.WithRepository(postgres.NewLookupRepository(db)))
	}

	return usecase.New(yt, fetchers, ucOpts...), cleanup, nil
}

// Run serves HTTP until ctx is cancelled and then shuts the server down.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	viewsUseCase, cleanup, err := NewViewsUseCase(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        delivery.NewRouter(logger, viewsUseCase),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		logger.Info("server stopped")

		return nil
	})

	return g.Wait()
}
