// @title my-pet API
// @version 1.0
// @description Registro de instituciones, usuarios, mascotas y rescates.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"my-pet/internal/adapters/auth/keysig"
	"my-pet/internal/adapters/storage/sqlstore"
	"my-pet/internal/platform/config"
	"my-pet/internal/platform/logger"
	"my-pet/internal/platform/metrics"
	"my-pet/internal/ports/auth"
	"my-pet/internal/router"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.NewFromEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log logger.Logger) error {
	opts := router.Options{
		RegistryOwner: cfg.RegistryOwner,
		Logger:        log,
		Metrics:       metrics.New(),
	}

	// sin verifier = modo dev (X-Debug-Identity)
	var verifier auth.AuthVerifier
	if cfg.AuthMode == config.AuthModeSignature {
		verifier = keysig.NewVerifier(keysig.Config{MaxSkew: cfg.AuthMaxSkew})
	}
	opts.AuthVerifier = verifier

	if cfg.DBDriver != "memory" {
		db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		opts.DB = db
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{
			"addr":      cfg.Addr,
			"auth_mode": string(cfg.AuthMode),
			"db_driver": cfg.DBDriver,
			"owner":     cfg.RegistryOwner.String(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
