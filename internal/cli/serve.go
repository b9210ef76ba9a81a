package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/GianGoulart/printer-queue-generation/internal/config"
	"github.com/GianGoulart/printer-queue-generation/internal/workerhttp"
	"github.com/GianGoulart/printer-queue-generation/pkg/cache"
	"github.com/GianGoulart/printer-queue-generation/pkg/manifest"
	"github.com/GianGoulart/printer-queue-generation/pkg/storage"
)

// serveCommand creates the "serve" command: brings up the worker
// process's collaborators from a TOML config file and exposes the
// healthz/readyz surface an orchestrator supervises. It does not
// accept jobs over HTTP — job submission is a narrow collaborator
// contract (see pkg/doc.go), wired by an out-of-tree queue consumer
// that calls internal/pipeline.Driver.Run directly.
func (c *CLI) serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bring up the worker's health surface from a TOML config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), c.Logger, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to the worker TOML config file")

	return cmd
}

func runServe(ctx context.Context, logger *log.Logger, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openManifestStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening manifest store: %w", err)
	}
	defer closeStore()

	// Constructing the store creates ArtifactDir if it is missing before
	// the process reports ready; job submission itself arrives through
	// internal/pipeline.Driver.Run, called by a queue consumer outside
	// this CLI's scope (see pkg/doc.go).
	if cfg.Storage.ArtifactDir != "" {
		if _, err := storage.NewLocalStore(cfg.Storage.ArtifactDir); err != nil {
			return fmt.Errorf("opening artifact store: %w", err)
		}
	}

	profileCache, err := openProfileCache(cfg)
	if err != nil {
		return fmt.Errorf("opening profile cache: %w", err)
	}

	checks := []workerhttp.Checker{
		func() error {
			_, _, err := store.Get(ctx, "healthcheck")
			return err
		},
	}
	if rc, ok := profileCache.(*cache.RedisCache); ok {
		checks = append(checks, func() error {
			_, _, err := rc.Get(ctx, "healthcheck")
			return err
		})
	}

	srv := workerhttp.NewServer(checks...)
	srv.MarkReady()

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("health surface listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func openManifestStore(ctx context.Context, cfg config.Config) (manifest.Store, func(), error) {
	if cfg.Storage.MongoURI != "" {
		store, err := manifest.NewMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(ctx) }, nil
	}
	store, err := manifest.NewFileStore("./output/manifests")
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func openProfileCache(cfg config.Config) (cache.Cache, error) {
	if cfg.Cache.RedisAddr != "" {
		return cache.NewRedisCache(cfg.Cache.RedisAddr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
