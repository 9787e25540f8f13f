package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/app"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/config"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/folders"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer container.Close()

	workerCfg := folders.DefaultRetryWorkerConfig()
	if cfg.Workers.FolderRetrySchedule != "" {
		workerCfg.Schedule = cfg.Workers.FolderRetrySchedule
	}
	if cfg.Workers.BatchSize > 0 {
		workerCfg.BatchSize = cfg.Workers.BatchSize
	}
	if cfg.Workers.JobTimeout > 0 {
		workerCfg.JobTimeout = cfg.Workers.JobTimeout
	}
	workerCfg.MaxConcurrent = cfg.Workers.MaxConcurrent

	worker := folders.NewRetryWorker(container.Folders, logger.Named("folder-worker"), workerCfg)

	if *once {
		stats := worker.RunOnce(ctx)
		logger.Info("Folder sweep complete",
			zap.Int64("provisioned", stats.Provisioned),
			zap.Int64("deferred", stats.Deferred),
			zap.Int64("failed", stats.Failed))
		return
	}

	if err := worker.Start(ctx); err != nil {
		logger.Fatal("Failed to start folder worker", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	worker.Stop()
}
