package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chameleon/internal/app"
	"chameleon/internal/config"
	"chameleon/internal/domain"
	"chameleon/internal/store"
	"chameleon/internal/topicgen"
	httpTransport "chameleon/internal/transport/http"
)

const releaseVersion = "0.1.0"

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chameleon",
		Short:         "Realtime server for The Chameleon party game.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("chameleon v{{.Version}}\n")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting chameleon game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
	)

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	topics := app.DefaultTopics
	if cfg.Topics.File != "" {
		topics, err = app.LoadTopicsFile(cfg.Topics.File)
		if err != nil {
			return err
		}
	}
	pool := app.NewTopicPool(topics, nil)
	logger.Info("topics loaded", "count", pool.Len())

	hubCfg := app.HubConfig{
		CodeLength:      cfg.Rooms.CodeLength,
		CodeAttempts:    cfg.Rooms.CodeAttempts,
		EndGrace:        cfg.Rooms.EndGrace,
		StaleTimeout:    cfg.Rooms.StaleTimeout,
		CleanupInterval: cfg.Rooms.CleanupInterval,
	}
	if cfg.Topics.GeminiAPIKey != "" {
		gen, err := topicgen.NewGemini(ctx, cfg.Topics.GeminiAPIKey, cfg.Topics.GeminiModel)
		if err != nil {
			return err
		}
		hubCfg.Generator = gen
		logger.Info("generated topics enabled", "model", cfg.Topics.GeminiModel)
	}

	hub := app.NewHub(st, domain.NewMachine(rules), pool, hubCfg, logger)
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, logger)

	errs := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errs:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	default:
		return store.NewMemoryStore(), nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
