package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"listing-parser/config"
	"listing-parser/fetcher"
	"listing-parser/server"
	"listing-parser/services"
	"listing-parser/storage"
	"listing-parser/utils"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "listing-parser",
	Short: "Extract structured fields from business-for-sale listings",
	Long: `listing-parser turns free-form business listing text into structured fields
(business name, asking price, revenue, SDE, real estate, location) and stores
the raw text next to the result.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "optional YAML config file")
	rootCmd.AddCommand(serveCmd, parseCmd, fetchCmd, exportCmd, summaryCmd)
}

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

func newApp() (*app, error) {
	// used until the configured logger exists
	boot := utils.NewLogger()
	defer boot.Close()

	cfg, err := config.Load(configPath)
	if err != nil {
		boot.Error("[main] Failed to load config: %v", err)
		return nil, err
	}
	logger, err := utils.NewLoggerWithConfig(utils.LogConfig{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		boot.Error("[main] Failed to build logger: %v", err)
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Close()
}

// openStore connects the configured record store.
func (a *app) openStore(ctx context.Context) (storage.RecordStore, error) {
	switch a.cfg.StorageDriver {
	case config.DriverMemory:
		a.logger.Warn("[main] Using in-memory storage, records are lost on exit")
		return storage.NewMemoryStore(), nil
	default:
		store, err := storage.NewPostgresStore(ctx, a.cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: a.cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      a.logger,
		})
		if err != nil {
			a.logger.Error("[main] Failed to connect to PostgreSQL: %v", err)
			a.logger.Error("[main] Make sure Docker is running: docker compose up -d")
			return nil, err
		}
		return store, nil
	}
}

func (a *app) newFetcher() *fetcher.BrowserFetcher {
	if !a.cfg.BrowserEnabled {
		return nil
	}
	return fetcher.NewBrowserFetcher(a.cfg, a.logger)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingestion service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("=== Listing parser starting ===")
	a.logger.Info("Config: storage=%s | addr=%s | max text: %d bytes | browser: %t",
		a.cfg.StorageDriver, a.cfg.HTTPAddr(), a.cfg.MaxTextBytes, a.cfg.BrowserEnabled)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := server.Deps{
		Ingestor: services.NewIngestor(store, a.logger, a.cfg.MaxTextBytes),
		Insights: services.NewInsightService(a.logger),
		Store:    store,
		Metrics:  server.NewMetrics(),
	}
	// a nil *BrowserFetcher must not become a non-nil interface
	if f := a.newFetcher(); f != nil {
		deps.Fetcher = f
	}

	srv, err := server.NewServer(deps, a.logger, &server.Config{
		Host:        a.cfg.HTTPHost,
		Port:        a.cfg.HTTPPort,
		MaxBodySize: a.cfg.MaxBodySize,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	a.logger.Info("=== Listing parser stopped ===")
	return nil
}
