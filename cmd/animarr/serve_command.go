package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"animarr/internal/anilist"
	"animarr/internal/jobs"
	"animarr/internal/logging"
	"animarr/internal/metadata"
	"animarr/internal/qbittorrent"
	"animarr/internal/scheduler"
	"animarr/internal/scraper"
	"animarr/internal/server"
	"animarr/internal/settings"
	"animarr/internal/store"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the animarr service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lockPath := filepath.Join(cfg.DataDir(), "animarr.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock %s: %w", lockPath, err)
			}
			if !locked {
				return fmt.Errorf("another animarr instance is already running (lock %s)", lockPath)
			}
			defer lock.Unlock() //nolint:errcheck

			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: "*.log",
			})

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			catalog := anilist.NewClient(cfg, logger)
			feed := scraper.NewClient(cfg, logger)

			var tvdb, tmdb metadata.Provider
			if cfg.TVDB.APIKey != "" {
				tvdb = metadata.NewTVDB(cfg, logger)
			}
			if cfg.TMDB.APIKey != "" {
				tmdb = metadata.NewTMDB(cfg, logger)
			}
			resolver := settings.NewResolver(st, cfg, tvdb, tmdb, logger)

			var downloader jobs.Downloader
			var mapper *qbittorrent.PathMapper
			if cfg.QBittorrent.Enabled {
				client, err := qbittorrent.NewClient(cfg, logger)
				if err != nil {
					return fmt.Errorf("init qbittorrent client: %w", err)
				}
				if err := client.TestConnection(ctx); err != nil {
					logger.Warn("qbittorrent unreachable at startup", "error", err)
				}
				downloader = client
				mapper = qbittorrent.NewPathMapper(cfg.QBittorrent.PathMappings)
			}

			runner := jobs.NewRunner(st, catalog, feed, resolver, downloader, mapper, logger)

			if cfg.Scheduler.Enabled {
				sched := scheduler.New(cfg, runner, logger)
				if err := sched.Start(ctx); err != nil {
					return fmt.Errorf("start scheduler: %w", err)
				}
				defer sched.Stop()
			}

			api := server.New(cfg, st, runner, resolver, logger)
			httpServer := &http.Server{
				Addr:              cfg.Paths.APIBind,
				Handler:           api.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("api listening", "bind", cfg.Paths.APIBind)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("api server: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("api shutdown", "error", err)
			}
			return nil
		},
	}
}
