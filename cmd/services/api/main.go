package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/queue"
	"github.com/soltixdb/cosinor/internal/router"
	"github.com/soltixdb/cosinor/internal/services"
	"github.com/soltixdb/cosinor/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Analysis API starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Event notifications are optional
	var notifier *services.Notifier
	if cfg.Events.Enabled {
		logger.Info("Connecting to event queue", "type", cfg.Events.Type, "url", cfg.Events.URL)
		publisher, err := queue.NewPublisher(cfg.Events)
		if err != nil {
			logger.Fatal("Failed to connect to event queue", "error", err)
		}
		notifier, err = services.NewNotifier(publisher, cfg.Events, logger)
		if err != nil {
			_ = publisher.Close()
			logger.Fatal("Failed to create event notifier", "error", err)
		}
		defer func() { _ = notifier.Close() }()
		logger.Info("Event notifications enabled",
			"subject", cfg.Events.Subject, "compression", cfg.Events.Compression)
	}

	service, err := services.NewAnalysisService(logger, cfg.Analysis, cfg.Ingest, notifier)
	if err != nil {
		logger.Fatal("Failed to create analysis service", "error", err)
	}

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, service, *cfg)

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
