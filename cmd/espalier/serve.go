package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	httpadapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/internal/metrics"
	"github.com/aretw0/espalier/pkg/adapters/archive"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document API server",
	Long: `Serves the document store over HTTP: JSON endpoints for document and
node editing, an SSE change feed, Prometheus metrics on /metrics and the
OpenAPI description on /openapi.yaml. When the store section configures an
archive directory and an autosave schedule, documents are periodically
checkpointed into the content-addressed archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Serve.Addr = addr
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		m := metrics.New()
		store, err := buildStore(cfg, logger, m.Registerer())
		if err != nil {
			return err
		}
		ws, err := buildWorkspace(cfg, logger, store, espalier.WithEditHooks(m.Hooks()))
		if err != nil {
			return err
		}
		m.TrackOpenEditors(ws.Sessions().OpenCount)

		api, err := httpadapter.NewHandler(ws, logger)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/", api)

		srv := &http.Server{
			Addr:    cfg.Serve.Addr,
			Handler: mux,
		}

		// Background schedule: archive checkpoints on the autosave cron
		// expression, idle editor eviction on a fixed cadence.
		sched := cron.New()
		if cfg.Serve.Autosave != "" && cfg.Store.ArchiveDir != "" {
			arc, err := archive.New(cfg.Store.ArchiveDir)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer arc.Close()

			if _, err := sched.AddFunc(cfg.Serve.Autosave, func() {
				checkpointAll(cmd.Context(), ws, arc, logger)
			}); err != nil {
				return fmt.Errorf("invalid autosave schedule %q: %w", cfg.Serve.Autosave, err)
			}
		}
		if evictAfter, _ := cfg.Serve.EvictAfter(); evictAfter > 0 {
			spec := fmt.Sprintf("@every %s", evictAfter)
			if _, err := sched.AddFunc(spec, func() {
				if n := ws.Sessions().EvictIdle(evictAfter); n > 0 {
					logger.Debug("evicted idle editors", "count", n)
				}
			}); err != nil {
				return fmt.Errorf("invalid idle_timeout: %w", err)
			}
		}
		sched.Start()
		defer sched.Stop()

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("espalier server listening", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("closing server: %w", err)
				}
			}
			logger.Info("espalier server stopped")
			return nil
		}
	},
}

// checkpointAll writes one archive checkpoint per stored document. Failures
// are logged per document; one broken tree must not stop the rest.
func checkpointAll(ctx context.Context, ws *espalier.Workspace, arc *archive.Archive, logger *slog.Logger) {
	infos, err := ws.List(ctx)
	if err != nil {
		logger.Warn("autosave listing failed", "err", err)
		return
	}
	for _, info := range infos {
		doc, err := ws.Load(ctx, info.ID)
		if err != nil {
			logger.Warn("autosave load failed", "doc", info.ID, "err", err)
			continue
		}
		cp, err := arc.Write(ctx, doc)
		if err != nil {
			logger.Warn("autosave checkpoint failed", "doc", info.ID, "err", err)
			continue
		}
		logger.Debug("autosave checkpoint", "doc", info.ID, "hash", cp.Hash)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides the config)")
}
