package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/Dev7-web/tendorlelo/internal/transport/chi"
	"github.com/Dev7-web/tendorlelo/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Serves the search, match and catalog API. When jobs.expire_interval_min is set, overdue tenders are expired on that schedule.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, envName)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	a.logger.Info("Starting tendorlelo API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	server := chiTransport.NewServer(a.catalog, a.search, a.health)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, a.logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	if every := time.Duration(cfg.Jobs.ExpireIntervalMin) * time.Minute; every > 0 {
		// Deferred after a.close, so it runs first and the store outlives
		// an in-flight expiry pass.
		stopJob := startExpireJob(a.context(ctx), a, every)
		defer stopJob()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}

// startExpireJob runs runExpireJob in the background. The returned stop
// cancels it and blocks until the current pass has returned.
func startExpireJob(ctx context.Context, a *app, every time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runExpireJob(ctx, a, every)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

// runExpireJob expires overdue tenders on every tick until ctx is done.
func runExpireJob(ctx context.Context, a *app, every time.Duration) {
	a.logger.Info("Tender expiry job scheduled", zap.Duration("interval", every))
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := a.catalog.ExpireOverdue(ctx, now); err != nil {
				a.logger.Error("Tender expiry job failed", zap.Error(err))
			}
		}
	}
}
