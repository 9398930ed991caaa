package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/longform/internal/api"
	"github.com/dgallion1/longform/internal/pipeline"
	"github.com/dgallion1/longform/internal/store"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command running the HTTP API.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the export HTTP service",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, port, cmd)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT)")
	return cmd
}

func runServe(rootOpts *RootOptions, port string, cmd *cobra.Command) error {
	log := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), nil))

	cfg, err := loadConfig(rootOpts)
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if port != "" {
		cfg.Port = port
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v, closeVault, err := openVault(ctx, cfg)
	if err != nil {
		log.Error("open vault failed", "error", err)
		return WrapExitError(ExitCommandError, "open vault", err)
	}
	defer closeVault()

	history, err := store.Open(cfg.HistoryDB)
	if err != nil {
		log.Error("open history failed", "error", err)
		return WrapExitError(ExitCommandError, "open history", err)
	}
	defer history.Close()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, v, history, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, history, v, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting longform", "port", cfg.Port, "vault", cfg.VaultDir, "backend", cfg.Settings.Backend)
	err = httpServer.ListenAndServe()
	orch.Stop()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
