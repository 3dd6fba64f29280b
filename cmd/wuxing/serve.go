package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/wuxing/internal/api"
	"github.com/talgya/wuxing/internal/persistence"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves chart evaluation over HTTP until interrupted.

Endpoints:
  GET    /api/v1/status
  POST   /api/v1/evaluate
  GET    /api/v1/evaluations?limit=N
  GET    /api/v1/evaluation/{id}
  DELETE /api/v1/evaluation/{id}   (bearer WUXING_ADMIN_KEY)
  GET    /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	var db *persistence.DB
	if cfg.Storage.Enabled {
		var err error
		if db, err = openArchive(); err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Storage.Path)
	}

	if cfg.Server.AdminKey == "" {
		slog.Warn("WUXING_ADMIN_KEY not set, admin DELETE endpoints will be disabled")
	}

	server := &api.Server{
		DB:              db,
		Port:            cfg.Server.Port,
		AdminKey:        cfg.Server.AdminKey,
		Version:         version,
		RateLimit:       cfg.Server.RateLimit,
		ParallelBalance: cfg.Engine.ParallelBalance,
	}
	srv := server.HTTPServer()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", server.AdminKey != "", "storage", db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	fmt.Fprintf(cmd.OutOrStdout(), "API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)

	grp.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return grp.Wait()
}
