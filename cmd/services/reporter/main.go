package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/compression"
	"github.com/packscale/packscale/internal/config"
	"github.com/packscale/packscale/internal/ingest"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/queue"
	"github.com/packscale/packscale/internal/report"
	"github.com/packscale/packscale/internal/router"
	"github.com/packscale/packscale/internal/services"
	"github.com/packscale/packscale/internal/storage"
	"github.com/packscale/packscale/internal/utils"
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
	logger.Info("Reporter service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Measurement store
	store := storage.NewMemoryStore(storage.MemoryStoreConfig{
		Retention:       cfg.Store.Retention,
		CleanupInterval: cfg.Store.CleanupInterval,
		MaxPerBackpack:  cfg.Store.MaxMeasurements,
		Location:        cfg.Engine.Location(),
	}, logger)
	defer func() { _ = store.Close() }()

	if cfg.Store.SnapshotPath != "" {
		n, err := store.LoadSnapshot(cfg.Store.SnapshotPath)
		if err != nil {
			logger.Fatal("Failed to load snapshot", "path", cfg.Store.SnapshotPath, "error", err)
		}
		logger.Info("Snapshot loaded", "path", cfg.Store.SnapshotPath, "measurements", n)
	}

	// Profile registry
	registry, err := profiles.NewRegistry(cfg.Profiles, logger)
	if err != nil {
		logger.Fatal("Failed to open profile registry", "backend", cfg.Profiles.Backend, "error", err)
	}
	defer func() { _ = registry.Close() }()
	logger.Info("Profile registry ready", "backend", cfg.Profiles.Backend)

	// Queue, only when something pulls from or pushes to it
	var queueClient queue.Queue
	if cfg.Ingest.Enabled || cfg.Alerts.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.NewQueue(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()
		logger.Info("Queue connection established")
	}

	var monitor *alerting.Monitor
	if cfg.Alerts.Enabled {
		monitor = alerting.NewMonitor(queueClient, cfg.Alerts.Subject, logger)
		logger.Info("Alert publishing enabled", "subject", cfg.Alerts.Subject)
	}

	defaults := profiles.Defaults{
		UserMassKg:      cfg.Engine.DefaultUserMassKg,
		OverloadPercent: cfg.Engine.DefaultOverloadPercent,
	}
	pipeline := ingest.NewPipeline(store, registry, defaults, monitor, logger)

	var consumer *ingest.Consumer
	if cfg.Ingest.Enabled {
		consumer = ingest.NewConsumer(queueClient, cfg.Ingest.Subject, pipeline, logger)
		if err := consumer.Start(); err != nil {
			logger.Fatal("Failed to start ingest consumer", "error", err)
		}
	}

	engine := report.NewEngine(report.Options{
		Location:             cfg.Engine.Location(),
		WeekStart:            cfg.Engine.WeekStartDay(),
		MinPredictionSamples: cfg.Engine.MinPredictionSamples,
		DefaultLimits: alerting.Limits{
			UserMassKg:      cfg.Engine.DefaultUserMassKg,
			OverloadPercent: cfg.Engine.DefaultOverloadPercent,
		},
	})

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, router.Dependencies{
		Store:    store,
		Reports:  services.NewReportService(logger, engine, store, registry, pipeline),
		Profiles: services.NewProfileService(logger, registry, defaults),
	}, *cfg)

	// Background snapshots
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Store.SnapshotPath != "" {
		algo, _ := compression.ParseAlgorithm(cfg.Store.SnapshotCompression) // validated by config
		snapshotter := storage.NewSnapshotter(store, cfg.Store.SnapshotPath, algo, cfg.Store.SnapshotInterval, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := snapshotter.Run(ctx); err != nil {
				logger.Error("Final snapshot failed", "path", cfg.Store.SnapshotPath, "error", err)
			}
		}()
	}

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

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Warn("Failed to stop ingest consumer", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// the final snapshot runs after the last write has been served
	cancel()
	wg.Wait()

	logger.Info("Server exited")
}
