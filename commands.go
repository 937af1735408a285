package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"heliopulse/internal/config"
	"heliopulse/internal/logger"
	"heliopulse/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// NewRootCmd builds the command tree. Running without a subcommand serves.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "heliopulse",
		Short:         "Space weather aggregation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch every group once and write the JSON and dashboard to disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			_, err = runSnapshot(cmd.Context(), dir)
			return err
		},
	}
	snapshotCmd.Flags().String("out", "", "Snapshot root directory (defaults to SNAPSHOTS_DIR)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetVersion())
		},
	}

	root.AddCommand(serveCmd, snapshotCmd, versionCmd)
	return root
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}

	srv := server.New(app.Aggregator, app.Dashboard,
		server.WithGatherer(app.Metrics),
		server.WithEnvironment(cfg.Environment),
		server.WithSnapshots(app.Snapshots),
	)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HelioPulse", map[string]interface{}{
		"port":        cfg.Port,
		"environment": cfg.Environment,
		"strategy":    cfg.FetchStrategy,
		"mockup":      cfg.MockupMode,
		"version":     config.GetVersion(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// runSnapshot stores one snapshot under dir, or SNAPSHOTS_DIR when dir is empty
func runSnapshot(ctx context.Context, dir string) (*server.Snapshot, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.SnapshotsDir = dir
	}
	app, err := NewApp(cfg)
	if err != nil {
		return nil, err
	}

	snap, err := app.Snapshots.Save(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("Snapshot complete", map[string]interface{}{
		"dir":        filepath.Join(cfg.SnapshotsDir, filepath.FromSlash(snap.Folder)),
		"provenance": snap.Provenance,
		"degraded":   snap.Degraded,
	})
	return snap, nil
}
