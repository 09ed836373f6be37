package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/product-catalog-service/internal/config"
	httpapi "github.com/fairyhunter13/product-catalog-service/internal/http"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
	"github.com/fairyhunter13/product-catalog-service/internal/upstream"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgFile)
		},
	}
}

func runServe(parent context.Context, cfgFile string) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	obs.InitLogger(obs.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})
	obs.Logger.Info().Msg("service_starting")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	// warm in the background so /healthz answers immediately
	go repo.Warmup(ctx)

	if cfg.Upstream.RefreshInterval > 0 {
		stop := repo.StartRefresh(ctx, cfg.Upstream.RefreshInterval)
		defer stop()
	}
	if cfg.Upstream.File != "" {
		if err := upstream.Watch(ctx, cfg.Upstream.File, func() { repo.Reload(ctx) }); err != nil {
			obs.Logger.Warn().Err(err).Str("path", cfg.Upstream.File).Msg("products_file_watch_disabled")
		}
	}

	app := httpapi.NewApp(newCatalog(cfg, repo), repo)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		obs.Logger.Info().Str("addr", cfg.HTTPAddr).Msg("http_listen")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	select {
	case s := <-sigc:
		obs.Logger.Info().Str("signal", s.String()).Msg("shutdown_signal")
	case err := <-errc:
		obs.Logger.Error().Err(err).Msg("http_server_error")
		return fmt.Errorf("http server: %w", err)
	case <-parent.Done():
		obs.Logger.Info().Msg("shutdown_context_done")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error().Err(err).Msg("http_shutdown_error")
	}
	cancel()
	obs.Logger.Info().Msg("service_stopped")
	return nil
}
