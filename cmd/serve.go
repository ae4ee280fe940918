package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/fakebook/internal/config"
	"github.com/lehigh-university-libraries/fakebook/internal/engine"
	"github.com/lehigh-university-libraries/fakebook/internal/handlers"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the fakebook JSON API on the specified port.

The configuration file is watched: edits to source or book priorities and
search defaults take effect without a restart.`,
		Example: `  # Start server on the configured port
  fakebook serve

  # Start server on custom port
  fakebook serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, store, eng, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			cfg := mgr.Get()
			holder := engine.NewHolder(eng)
			handler := handlers.New(holder, store, handlerSettings(cfg))

			mgr.OnChange(func(cfg *config.Config) {
				// offsets are re-read too so an import while serving is picked up
				next, err := buildEngine(context.Background(), store, cfg)
				if err != nil {
					slog.Error("Config reload failed, keeping previous engine", "err", err)
					return
				}
				holder.Swap(next)
				handler.SetSettings(handlerSettings(cfg))
				slog.Info("Config reloaded", "sources", len(cfg.Sources), "canonicals", len(cfg.Canonicals))
			})
			if mgr.ConfigFile() != "" {
				mgr.WatchConfig(func(err error) {
					slog.Error("Config reload failed", "err", err)
				})
			}

			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}

			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := ":" + strconv.Itoa(port)
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Fakebook API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on (default from config)")

	return cmd
}

func handlerSettings(cfg *config.Config) handlers.Settings {
	return handlers.Settings{
		Dedup:    cfg.Search.Dedup,
		Limit:    cfg.Search.Limit,
		MusicDir: cfg.MusicPath(),
	}
}
