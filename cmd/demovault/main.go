package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vfraga/wso2-custom-secret-vault/internal/config"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/health"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/log"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/metrics"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/version"
	"github.com/vfraga/wso2-custom-secret-vault/internal/vault"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("demovault stopped")
	}
}

func run(cfg config.Config, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metrics.Init(logger)
	store, err := prepareStore(cfg, logger)
	if err != nil {
		return err
	}

	probe := health.New()
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newHandler(cfg, logger, registry, store, probe),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		probe.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	probe.SetReady(true)
	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("store", store.Path()).
		Str("driver", cfg.Store.Driver).
		Str("version", version.Version).
		Msg("demo vault started")

	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}

// prepareStore opens the configured store and writes the sample secrets when
// the file does not exist yet.
func prepareStore(cfg config.Config, logger log.Logger) (vault.Store, error) {
	store, err := vault.New(cfg.Store.Driver, cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if !cfg.Store.Seed {
		return store, nil
	}
	created, err := store.Seed(vault.SampleSecrets())
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}
	if created {
		metrics.StoreSeededTotal.Inc()
		logger.Info().Str("path", store.Path()).Msgf("Created sample %s", store.Path())
	}
	return store, nil
}
