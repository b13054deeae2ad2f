package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/worldtime/internal/audit"
	"github.com/fentz26/worldtime/internal/command"
	"github.com/fentz26/worldtime/internal/config"
	"github.com/fentz26/worldtime/internal/controlplane"
	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/ledger"
	"github.com/fentz26/worldtime/internal/store"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the worldtime daemon",
	Long:  `Starts the daemon which serves the session and turn phase HTTP API.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

// newEngine builds the engine the configuration describes.
func newEngine(c *config.Config, logger *slog.Logger) *engine.Engine {
	var codec ledger.Codec = ledger.TextCodec{}
	if c.LedgerFormat == config.LedgerJSON {
		codec = ledger.JSONCodec{}
	}
	return engine.New(
		engine.WithDispatcher(command.NewDispatcher(command.WithModeToggle(c.AllowModeToggle))),
		engine.WithCodec(codec),
		engine.WithLogger(logger),
	)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	if listenAddr == "" {
		listenAddr = cfg.Listen
	}
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Initialize store
	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	// Create service and server
	pdr := audit.NewPDRWriter(s)
	hub := controlplane.NewHub(logger)
	service := controlplane.NewService(s, pdr, newEngine(cfg, logger), hub, cfg.Mode, logger)
	server := controlplane.NewServer(service, s, listenAddr)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "error", err)
			s.Close()
			return err
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := s.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
